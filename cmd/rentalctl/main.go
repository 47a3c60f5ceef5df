// rentalctl exercises the rentals client engine against a backend from the
// command line: inspect the cart, mutate it, and run a full checkout using
// the deterministic test gateway.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/happygorentals/client-go/internal/api"
	"github.com/happygorentals/client-go/internal/booking"
	"github.com/happygorentals/client-go/internal/cart"
	"github.com/happygorentals/client-go/internal/checkout"
	"github.com/happygorentals/client-go/internal/config"
	"github.com/happygorentals/client-go/internal/events"
	"github.com/happygorentals/client-go/internal/gateway"
	"github.com/happygorentals/client-go/internal/obs"
	"github.com/happygorentals/client-go/internal/pricing"
	"github.com/happygorentals/client-go/internal/resilience"
	"github.com/happygorentals/client-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	var metrics *obs.APIMetrics
	if cfg.MetricsEnabled {
		metrics = obs.NewAPIMetrics("rentals", nil, nil)
	}

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "rentalctl",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      "otlp",
			SamplingRatio: cfg.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	var cache *booking.Cache
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
		if cfg.MetricsEnabled {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, booking cache disabled")
		} else {
			cache = booking.NewCache(redisClient, cfg.BookingCacheTTL)
		}
		cancel()
	}

	bus := events.NewBus()
	bus.Subscribe(events.TopicCartNotice, func(ev events.Event) {
		if n, ok := ev.Payload.(cart.Notice); ok {
			fmt.Fprintln(os.Stderr, "notice:", n.Message)
		}
	})
	bus.Subscribe(events.TopicSessionExpired, func(events.Event) {
		fmt.Fprintln(os.Stderr, "session expired, sign in again")
	})

	sess := session.New(&session.MemoryStore{}, logger, func() {
		bus.Publish(events.TopicSessionExpired, nil)
	})
	if token := os.Getenv("RENTALS_TOKEN"); token != "" {
		if err := sess.SignIn(context.Background(), token, session.User{}); err != nil {
			logger.Warn().Err(err).Msg("ignoring malformed RENTALS_TOKEN")
		}
	}

	breaker := resilience.NewBreaker(cfg.BreakerMinReqs, cfg.BreakerRatio, cfg.BreakerOpenFor).
		WithTarget("rentals-api").
		WithLogger(logger)
	baseHTTP := &http.Client{
		Transport: obs.InstrumentTransport(http.DefaultTransport),
		Timeout:   cfg.HTTPTimeout,
	}
	reads := resilience.HTTPClient{
		Client:      baseHTTP,
		Breaker:     breaker,
		BaseBackoff: 200 * time.Millisecond,
		MaxAttempts: cfg.ReadMaxRetries,
		Jitter:      0.2,
		Timeout:     cfg.HTTPTimeout,
	}
	mutations := resilience.HTTPClient{
		Client:      baseHTTP,
		Breaker:     breaker,
		MaxAttempts: 1,
		Timeout:     cfg.HTTPTimeout,
	}

	client, err := api.New(api.Config{
		BaseURL:        cfg.APIBaseURL,
		Tokens:         sess,
		Logger:         logger,
		Metrics:        metrics,
		Reads:          reads,
		Mutations:      mutations,
		OnUnauthorized: sess.HandleUnauthorized,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise api client")
	}

	engine, err := cart.NewEngine(cart.EngineConfig{
		Backend:   client,
		Logger:    logger,
		PolicyMax: cfg.PolicyMaxQuantity,
		Debounce:  cfg.DebounceWindow,
		Notify: func(n cart.Notice) {
			bus.Publish(events.TopicCartNotice, n)
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise cart engine")
	}

	bookings, err := booking.NewService(client, cache, logger, sess.UserID())
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise booking service")
	}

	orchestrator, err := checkout.New(checkout.Config{
		Backend: client,
		Gateway: gateway.Static{Secret: os.Getenv("RAZORPAY_TEST_SECRET")},
		Cart:    engine,
		Logger:  logger,
		KeyID:   cfg.RazorpayKeyID,
		OnSuccess: func(ctx context.Context, confirmed []booking.Booking) {
			bookings.InvalidateAll(ctx)
			bus.Publish(events.TopicBookingsChanged, confirmed)
		},
		OnStateChange: func(s checkout.State) {
			bus.Publish(events.TopicCheckoutState, s)
			logger.Debug().Str("state", s.String()).Msg("checkout_state")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise checkout")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	app := &cli{
		engine:       engine,
		bookings:     bookings,
		orchestrator: orchestrator,
		debounce:     cfg.DebounceWindow,
	}
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	engine       *cart.Engine
	bookings     *booking.Service
	orchestrator *checkout.Orchestrator
	debounce     time.Duration
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "cart":
		return c.showCart(ctx)
	case "add-bike":
		return c.addBike(ctx, args)
	case "set-qty":
		return c.setQuantity(ctx, args)
	case "remove":
		return c.removeItem(ctx, args)
	case "helmets":
		return c.setHelmets(ctx, args)
	case "checkout":
		return c.checkout(ctx, args)
	case "bookings":
		return c.listBookings(ctx, args)
	case "booking":
		return c.showBooking(ctx, args)
	case "pay-remaining":
		return c.payRemaining(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *cli) showCart(ctx context.Context) error {
	snap, err := c.engine.Refresh(ctx)
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func (c *cli) addBike(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-bike", flag.ContinueOnError)
	bikeID := fs.String("bike", "", "bike id")
	qty := fs.Int("qty", 1, "quantity")
	plan := fs.String("plan", string(cart.PlanLimited), "limited or unlimited")
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD)")
	startTime := fs.String("start-time", "10:00", "pickup time")
	endTime := fs.String("end-time", "18:00", "return time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bikeID == "" || *start == "" || *end == "" {
		return fmt.Errorf("add-bike requires -bike, -start and -end")
	}
	err := c.engine.AddBike(ctx, cart.AddBikeRequest{
		BikeID:    *bikeID,
		Quantity:  *qty,
		Plan:      cart.Plan(*plan),
		StartDate: *start,
		EndDate:   *end,
		StartTime: *startTime,
		EndTime:   *endTime,
	})
	if err != nil {
		return err
	}
	return printJSON(c.engine.Snapshot())
}

func (c *cli) setQuantity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-qty", flag.ContinueOnError)
	itemID := fs.String("item", "", "cart item id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *itemID == "" {
		return fmt.Errorf("set-qty requires -item")
	}
	if _, err := c.engine.Refresh(ctx); err != nil {
		return err
	}
	if err := c.engine.SetQuantity(*itemID, *qty); err != nil {
		return err
	}
	// wait for the debounced mutation to land
	time.Sleep(c.debounce + 2*time.Second)
	return printJSON(c.engine.Snapshot())
}

func (c *cli) removeItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	itemID := fs.String("item", "", "cart item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *itemID == "" {
		return fmt.Errorf("remove requires -item")
	}
	if err := c.engine.RemoveItem(ctx, *itemID); err != nil {
		return err
	}
	return printJSON(c.engine.Snapshot())
}

func (c *cli) setHelmets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("helmets", flag.ContinueOnError)
	qty := fs.Int("qty", 0, "helmet quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := c.engine.Refresh(ctx); err != nil {
		return err
	}
	if err := c.engine.SetHelmetQuantity(ctx, *qty); err != nil {
		return err
	}
	return printJSON(c.engine.Snapshot())
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	name := fs.String("name", "", "guest name")
	email := fs.String("email", "", "guest email")
	phone := fs.String("phone", "", "guest phone (10 digits)")
	modeFlag := fs.String("mode", "partial", "partial or full")
	notes := fs.String("notes", "", "special requests")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode := pricing.Partial25
	if *modeFlag == "full" {
		mode = pricing.Full100
	}
	if _, err := c.engine.Refresh(ctx); err != nil {
		return err
	}
	out, err := c.orchestrator.Submit(ctx, api.GuestDetails{Name: *name, Email: *email, Phone: *phone}, *notes, mode)
	if err != nil {
		return err
	}
	fmt.Printf("payment group %s: pay now %.2f, pay later %.2f\n", out.PaymentGroupID, out.Split.PayNow, out.Split.PayLater)
	return printJSON(out.Bookings)
}

func (c *cli) listBookings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bookings", flag.ContinueOnError)
	force := fs.Bool("refresh", false, "skip the cache")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := c.bookings.List(ctx, *force)
	if err != nil {
		return err
	}
	for _, b := range list {
		action := booking.NextAction(b)
		fmt.Printf("%s  %-10s %-8s total %.2f remaining %.2f  %s\n", b.ID, b.Status, b.PaymentStatus, b.TotalAmount, b.RemainingAmount, action)
	}
	return nil
}

func (c *cli) showBooking(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("booking", flag.ContinueOnError)
	id := fs.String("id", "", "booking id")
	force := fs.Bool("refresh", false, "skip the cache")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("booking requires -id")
	}
	b, err := c.bookings.Get(ctx, *id, *force)
	if err != nil {
		return err
	}
	return printJSON(b)
}

func (c *cli) payRemaining(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay-remaining", flag.ContinueOnError)
	id := fs.String("id", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("pay-remaining requires -id")
	}
	b, err := c.bookings.Get(ctx, *id, true)
	if err != nil {
		return err
	}
	if err := c.orchestrator.PayRemaining(ctx, *b, gateway.Prefill{}); err != nil {
		return err
	}
	fmt.Println("remaining balance settled for", b.ID)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rentalctl <command> [flags]

commands:
  cart                       show the current cart
  add-bike                   add a bike line (-bike -qty -plan -start -end)
  set-qty                    change a line quantity (-item -qty)
  remove                     remove a line (-item)
  helmets                    set helmet quantity (-qty)
  checkout                   run checkout (-name -email -phone -mode partial|full)
  bookings                   list bookings (-refresh)
  booking                    show one booking (-id -refresh)
  pay-remaining              settle a partial booking (-id)`)
}
