package events

// Topic identifies a class of client events.
type Topic string

const (
	// TopicCartNotice carries cart.Notice values (clamps, rollbacks).
	TopicCartNotice Topic = "cart.notice"
	// TopicCheckoutState carries checkout.State transitions.
	TopicCheckoutState Topic = "checkout.state"
	// TopicSessionExpired fires when credentials are dropped.
	TopicSessionExpired Topic = "session.expired"
	// TopicBookingsChanged fires when a payment creates or updates bookings.
	TopicBookingsChanged Topic = "bookings.changed"
)
