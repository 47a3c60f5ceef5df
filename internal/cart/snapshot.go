package cart

import (
	"github.com/happygorentals/client-go/internal/pricing"
)

// Plan selects the pricing variant for a bike line.
type Plan string

const (
	// PlanLimited is the km-capped daily rate. Default for new selections.
	PlanLimited Plan = "limited"
	// PlanUnlimited is the unlimited-km daily rate.
	PlanUnlimited Plan = "unlimited"
)

// Room and meal variants for hostel lines.
const (
	RoomDormitory = "dormitory"
	RoomPrivate   = "private"

	MealBedOnly            = "bedOnly"
	MealBedAndBreakfast    = "bedAndBreakfast"
	MealBedBreakfastDinner = "bedBreakfastAndDinner"
)

// PlanPrice is one cell of a bike's per-plan price table.
type PlanPrice struct {
	Price   pricing.Amount `json:"price"`
	KmLimit int            `json:"kmLimit,omitempty"`
	Active  bool           `json:"isActive"`
}

// DayPrices holds the limited and unlimited rates for one day class.
type DayPrices struct {
	LimitedKm PlanPrice `json:"limitedKm"`
	Unlimited PlanPrice `json:"unlimited"`
}

// PriceTable is the per-plan price table fetched with the bike. Plan changes
// re-read this table; they never trigger a network call.
type PriceTable struct {
	Weekday DayPrices `json:"weekday"`
	Weekend DayPrices `json:"weekend"`
}

// UnitPrice returns the displayed per-unit price for a plan and day class.
func (t PriceTable) UnitPrice(plan Plan, weekend bool) pricing.Amount {
	day := t.Weekday
	if weekend {
		day = t.Weekend
	}
	if plan == PlanUnlimited {
		return day.Unlimited.Price
	}
	return day.LimitedKm.Price
}

// KmLimit returns the kilometre cap for the limited plan, 0 for unlimited.
func (t PriceTable) KmLimit(plan Plan, weekend bool) int {
	if plan == PlanUnlimited {
		return 0
	}
	if weekend {
		return t.Weekend.LimitedKm.KmLimit
	}
	return t.Weekday.LimitedKm.KmLimit
}

// BikeSummary is the embedded bike document inside a cart line.
type BikeSummary struct {
	ID                string     `json:"_id"`
	Title             string     `json:"title"`
	Brand             string     `json:"brand"`
	Images            []string   `json:"images,omitempty"`
	AvailableQuantity int        `json:"availableQuantity"`
	PricePerDay       PriceTable `json:"pricePerDay"`
}

// HostelSummary is the embedded hostel document inside a cart line.
type HostelSummary struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Images   []string `json:"images,omitempty"`
	Location string   `json:"location,omitempty"`
}

// BikeItem is one bike rental line. The date window is immutable once the
// line exists; changing dates means remove and re-add.
type BikeItem struct {
	ID           string         `json:"_id"`
	Bike         BikeSummary    `json:"bike"`
	Quantity     int            `json:"quantity"`
	Plan         Plan           `json:"kmOption"`
	PricePerUnit pricing.Amount `json:"pricePerUnit"`
	TotalPrice   pricing.Amount `json:"totalPrice"`
	StartDate    string         `json:"startDate"`
	EndDate      string         `json:"endDate"`
	StartTime    string         `json:"startTime"`
	EndTime      string         `json:"endTime"`
}

// HostelItem is one hostel stay line.
type HostelItem struct {
	ID             string         `json:"_id"`
	Hostel         HostelSummary  `json:"hostel"`
	RoomType       string         `json:"roomType"`
	MealOption     string         `json:"mealOption"`
	Quantity       int            `json:"quantity"`
	NumberOfNights int            `json:"numberOfNights,omitempty"`
	CheckIn        string         `json:"checkIn"`
	CheckOut       string         `json:"checkOut"`
	People         int            `json:"people"`
	PricePerUnit   pricing.Amount `json:"pricePerUnit"`
	TotalPrice     pricing.Amount `json:"totalPrice"`
}

// HelmetDetails is the cart-level helmet add-on. Charges are computed
// server-side; the client only displays them.
type HelmetDetails struct {
	Quantity int            `json:"quantity"`
	Charges  pricing.Amount `json:"charges"`
	Message  string         `json:"message,omitempty"`
}

// BikeDates is the shared rental window echoed back on helmet mutations.
type BikeDates struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// StayDates is the shared hostel stay window.
type StayDates struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// Snapshot is the full server-authoritative cart state. It is always
// replaced wholesale on every successful fetch or mutation response and
// never field-patched, so derived values can never mix pre- and
// post-mutation state.
type Snapshot struct {
	ID            string            `json:"_id"`
	BikeItems     []BikeItem        `json:"bikeItems"`
	HostelItems   []HostelItem      `json:"hostelItems"`
	HelmetDetails HelmetDetails     `json:"helmetDetails"`
	BikeDates     *BikeDates        `json:"bikeDates,omitempty"`
	HostelDates   *StayDates        `json:"hostelDates,omitempty"`
	Pricing       pricing.Breakdown `json:"pricing"`
}

// ItemCount returns the number of lines in the cart.
func (s *Snapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	return len(s.BikeItems) + len(s.HostelItems)
}

// TotalBikeUnits sums bike quantities across lines, used for the helmet
// free-allowance display and the helmet quantity clamp.
func (s *Snapshot) TotalBikeUnits() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, item := range s.BikeItems {
		total += item.Quantity
	}
	return total
}

// IsEmpty reports whether both line sequences are empty.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.BikeItems) == 0 && len(s.HostelItems) == 0)
}

// Total returns the authoritative payable total.
func (s *Snapshot) Total() pricing.Amount {
	if s == nil {
		return 0
	}
	return s.Pricing.Total
}

// BikeItem looks up a bike line by id.
func (s *Snapshot) BikeItem(itemID string) (BikeItem, bool) {
	if s == nil {
		return BikeItem{}, false
	}
	for _, item := range s.BikeItems {
		if item.ID == itemID {
			return item, true
		}
	}
	return BikeItem{}, false
}

// Clone returns a detached copy so callers cannot mutate engine state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.BikeItems = append([]BikeItem(nil), s.BikeItems...)
	out.HostelItems = append([]HostelItem(nil), s.HostelItems...)
	return &out
}

// AddBikeRequest is the payload for adding a bike line.
type AddBikeRequest struct {
	BikeID    string `json:"bikeId"`
	Quantity  int    `json:"quantity"`
	Plan      Plan   `json:"kmOption"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AddHostelRequest is the payload for adding a hostel line.
type AddHostelRequest struct {
	HostelID   string `json:"hostelId"`
	RoomType   string `json:"roomType"`
	MealOption string `json:"mealOption"`
	Quantity   int    `json:"quantity"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	People     int    `json:"people"`
}
