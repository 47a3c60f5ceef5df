package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/happygorentals/client-go/internal/common"
	"github.com/happygorentals/client-go/internal/pricing"
)

// DefaultDebounceWindow collapses rapid quantity taps into one backend call.
const DefaultDebounceWindow = 400 * time.Millisecond

// Backend is the slice of the REST client the engine depends on. Every
// mutation returns the fresh authoritative snapshot.
type Backend interface {
	CartDetails(ctx context.Context) (*Snapshot, error)
	AddBikeItem(ctx context.Context, req AddBikeRequest) (*Snapshot, error)
	AddHostelItem(ctx context.Context, req AddHostelRequest) (*Snapshot, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*Snapshot, error)
	RemoveItem(ctx context.Context, itemID string) (*Snapshot, error)
	UpdateHelmets(ctx context.Context, quantity int, dates *BikeDates) (*Snapshot, error)
}

// NoticeLevel grades a notice for the presentation layer.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// Notice is a non-blocking message for the UI (toast/inline hint).
type Notice struct {
	Level   NoticeLevel
	ItemID  string
	Message string
}

// EngineConfig wires an Engine.
type EngineConfig struct {
	Backend   Backend
	Logger    zerolog.Logger
	PolicyMax int
	Debounce  time.Duration
	// Notify receives engine notices. It must not block; the engine calls it
	// inline outside its lock.
	Notify func(Notice)
}

// Engine owns the single authoritative cart snapshot for a session and
// mediates every read and mutation against it. Successful responses replace
// the snapshot wholesale; failed mutations leave it untouched.
type Engine struct {
	mu        sync.Mutex
	backend   Backend
	logger    zerolog.Logger
	policyMax int
	debounce  time.Duration
	notify    func(Notice)

	snapshot *Snapshot
	pending  map[string]*itemMutation
	// seq is engine-global so a line removed and re-added mid-flight can
	// never match a stale response.
	seq uint64
}

type itemMutation struct {
	qty      int
	seq      uint64
	timer    *time.Timer
	inflight bool
}

// NewEngine constructs an engine. Backend is required.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("cart: backend is required")
	}
	policyMax := cfg.PolicyMax
	if policyMax < 1 {
		policyMax = DefaultPolicyMax
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	return &Engine{
		backend:   cfg.Backend,
		logger:    cfg.Logger,
		policyMax: policyMax,
		debounce:  debounce,
		notify:    cfg.Notify,
		pending:   map[string]*itemMutation{},
	}, nil
}

// Refresh fetches the cart and replaces the snapshot atomically. Safe to
// call concurrently; the last response to arrive wins.
func (e *Engine) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := e.backend.CartDetails(ctx)
	if err != nil {
		return nil, err
	}
	e.replace(snap)
	return snap.Clone(), nil
}

// AddBike adds a bike line and replaces the snapshot from the response.
func (e *Engine) AddBike(ctx context.Context, req AddBikeRequest) error {
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Plan == "" {
		req.Plan = PlanLimited
	}
	snap, err := e.backend.AddBikeItem(ctx, req)
	if err != nil {
		return err
	}
	e.replace(snap)
	return nil
}

// AddHostel adds a hostel line and replaces the snapshot from the response.
func (e *Engine) AddHostel(ctx context.Context, req AddHostelRequest) error {
	snap, err := e.backend.AddHostelItem(ctx, req)
	if err != nil {
		return err
	}
	e.replace(snap)
	return nil
}

// RemoveItem deletes a line. On failure the snapshot is untouched.
func (e *Engine) RemoveItem(ctx context.Context, itemID string) error {
	snap, err := e.backend.RemoveItem(ctx, itemID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.pending, itemID)
	e.snapshot = snap
	e.mu.Unlock()
	return nil
}

// SetHelmetQuantity clamps to [0, TotalBikeUnits] and dispatches. The charge
// itself is server-computed; the clamp only avoids a guaranteed rejection.
func (e *Engine) SetHelmetQuantity(ctx context.Context, quantity int) error {
	e.mu.Lock()
	units := e.snapshot.TotalBikeUnits()
	var dates *BikeDates
	if e.snapshot != nil {
		dates = e.snapshot.BikeDates
		if dates == nil && len(e.snapshot.BikeItems) > 0 {
			first := e.snapshot.BikeItems[0]
			dates = &BikeDates{StartDate: first.StartDate, EndDate: first.EndDate, StartTime: first.StartTime, EndTime: first.EndTime}
		}
	}
	e.mu.Unlock()

	if quantity < 0 {
		quantity = 0
	}
	if quantity > units {
		quantity = units
		e.emit(Notice{Level: NoticeWarn, Message: "helmets are limited to one per bike unit"})
	}
	snap, err := e.backend.UpdateHelmets(ctx, quantity, dates)
	if err != nil {
		return err
	}
	e.replace(snap)
	return nil
}

// SetQuantity clamps the requested quantity for a bike line, updates the
// displayed value optimistically and schedules a debounced mutation. Rapid
// calls coalesce; the latest value wins. A failed dispatch rolls the display
// back to the last server-confirmed quantity.
func (e *Engine) SetQuantity(itemID string, requested int) error {
	e.mu.Lock()
	item, ok := e.snapshot.BikeItem(itemID)
	if !ok {
		e.mu.Unlock()
		return common.NewAppError(common.KindValidation, "ITEM_NOT_FOUND", "item is no longer in the cart", nil)
	}
	if item.Bike.AvailableQuantity < 1 {
		e.mu.Unlock()
		return common.NewAppError(common.KindValidation, "OUT_OF_STOCK", "this bike is no longer available for the selected dates", nil)
	}
	qty, clamped := ClampQuantity(requested, item.Bike.AvailableQuantity, e.policyMax)

	mut, exists := e.pending[itemID]
	if !exists {
		mut = &itemMutation{}
		e.pending[itemID] = mut
	}
	mut.qty = qty
	if mut.timer != nil {
		mut.timer.Stop()
	}
	mut.timer = time.AfterFunc(e.debounce, func() { e.dispatch(itemID) })
	e.mu.Unlock()

	if clamped {
		e.emit(Notice{Level: NoticeWarn, ItemID: itemID, Message: "maximum available quantity reached"})
	}
	return nil
}

// dispatch sends the latest pending quantity for one item. At most one
// mutation per item is in flight; a timer firing mid-flight re-arms itself.
func (e *Engine) dispatch(itemID string) {
	e.mu.Lock()
	mut, ok := e.pending[itemID]
	if !ok {
		e.mu.Unlock()
		return
	}
	if mut.inflight {
		mut.timer = time.AfterFunc(e.debounce, func() { e.dispatch(itemID) })
		e.mu.Unlock()
		return
	}
	mut.inflight = true
	e.seq++
	mut.seq = e.seq
	seq := mut.seq
	qty := mut.qty
	e.mu.Unlock()

	snap, err := e.backend.UpdateItemQuantity(context.Background(), itemID, qty)

	e.mu.Lock()
	mut, ok = e.pending[itemID]
	if !ok || mut.seq != seq {
		// superseded by a newer dispatch; discard this response
		e.mu.Unlock()
		return
	}
	mut.inflight = false
	if err != nil {
		delete(e.pending, itemID)
		e.mu.Unlock()
		e.logger.Error().Err(err).Str("item_id", itemID).Int("quantity", qty).Msg("cart_quantity_update_failed")
		e.emit(Notice{Level: NoticeError, ItemID: itemID, Message: "could not update quantity, reverted to previous value"})
		return
	}
	if mut.qty == qty {
		// no newer tap arrived while in flight; the response is current
		delete(e.pending, itemID)
	} else {
		mut.timer = time.AfterFunc(e.debounce, func() { e.dispatch(itemID) })
	}
	e.snapshot = snap
	e.mu.Unlock()
}

// PlanUnitPrice returns the per-unit price a bike line would display under
// the given plan, read from the line's embedded price table. Plan switches
// never trigger a network call.
func (e *Engine) PlanUnitPrice(itemID string, plan Plan, weekend bool) (pricing.Amount, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.snapshot.BikeItem(itemID)
	if !ok {
		return 0, false
	}
	return item.Bike.PricePerDay.UnitPrice(plan, weekend), true
}

// DisplayedQuantity returns the optimistic quantity for a line: the pending
// value when a mutation is queued or in flight, else the confirmed one.
func (e *Engine) DisplayedQuantity(itemID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mut, ok := e.pending[itemID]; ok {
		return mut.qty
	}
	if item, ok := e.snapshot.BikeItem(itemID); ok {
		return item.Quantity
	}
	return 0
}

// Snapshot returns a detached copy of the current snapshot, nil before the
// first successful refresh and after Clear.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// ItemCount, TotalBikeUnits, IsEmpty and Total are pure reads of the single
// current snapshot; they can never mix states.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.ItemCount()
}

func (e *Engine) TotalBikeUnits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.TotalBikeUnits()
}

func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.IsEmpty()
}

func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Total()
}

// Clear drops local cart state after a verified payment. The backend clears
// its copy authoritatively; the next refresh would come back empty anyway.
func (e *Engine) Clear() {
	e.mu.Lock()
	for id, mut := range e.pending {
		if mut.timer != nil {
			mut.timer.Stop()
		}
		delete(e.pending, id)
	}
	e.snapshot = nil
	e.mu.Unlock()
}

func (e *Engine) replace(snap *Snapshot) {
	e.mu.Lock()
	e.snapshot = snap
	e.mu.Unlock()
}

func (e *Engine) emit(n Notice) {
	if e.notify == nil {
		return
	}
	e.notify(n)
}
