package realtime

import (
	"sync"
	"time"

	"savora-be/internal/catalog"
)

// Concern names what a refresh callback should reload.
type Concern string

const (
	ConcernProducts  Concern = "products"
	ConcernAddresses Concern = "addresses"
)

// product tables watched for the cart view
var productTables = map[string]bool{
	"menu_items":      true,
	"dishes":          true,
	"legacy_products": true,
	"categories":      true,
}

// DefaultDebounce batches trigger bursts (a bulk menu update fires one event
// per row) into a single refresh.
const DefaultDebounce = 300 * time.Millisecond

// Subscription filters the change feed for one client view: product events
// are relevant only when the cart references the changed row, address events
// only when they belong to the viewing user. Refreshes are debounced per
// concern and dropped entirely while Suspended reports true (payment in
// flight).
type Subscription struct {
	mu       sync.Mutex
	refs     map[string]bool // catalog.ProductRef keys the cart holds
	userID   *uint
	timers   map[Concern]*time.Timer
	debounce time.Duration
	closed   bool

	onRefresh func(Concern)
	suspended func() bool
	onClose   func()
}

// NewSubscription builds a subscription for a cart view. suspended may be nil.
func NewSubscription(onRefresh func(Concern), suspended func() bool) *Subscription {
	if suspended == nil {
		suspended = func() bool { return false }
	}
	return &Subscription{
		refs:      make(map[string]bool),
		timers:    make(map[Concern]*time.Timer),
		debounce:  DefaultDebounce,
		onRefresh: onRefresh,
		suspended: suspended,
	}
}

// SetRefs replaces the watched product set; call it whenever cart contents
// change.
func (s *Subscription) SetRefs(refs []catalog.ProductRef) {
	keys := make(map[string]bool, len(refs))
	for _, r := range refs {
		keys[r.Key()] = true
	}

	s.mu.Lock()
	s.refs = keys
	s.mu.Unlock()
}

// SetUser scopes address events to one account.
func (s *Subscription) SetUser(userID uint) {
	s.mu.Lock()
	s.userID = &userID
	s.mu.Unlock()
}

func (s *Subscription) offer(ev Event) {
	var concern Concern

	switch {
	case productTables[ev.Table]:
		concern = ConcernProducts
		// Category changes can reprice anything; row-level events must
		// match a ref the cart actually holds.
		if ev.Table != "categories" && !s.holdsRow(ev) {
			return
		}
	case ev.Table == "addresses":
		concern = ConcernAddresses
		s.mu.Lock()
		relevant := s.userID != nil && ev.UserID != nil && *s.userID == *ev.UserID
		s.mu.Unlock()
		if !relevant {
			return
		}
	default:
		return
	}

	s.schedule(concern)
}

func (s *Subscription) holdsRow(ev Event) bool {
	ref, ok := ev.ProductRef()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[ref.Key()]
}

func (s *Subscription) offerAll() {
	s.schedule(ConcernProducts)
	s.schedule(ConcernAddresses)
}

// schedule arms (or re-arms) the per-concern debounce timer. The suspension
// check runs when the timer fires, not when the event arrives, so an event
// landing mid-payment stays dropped rather than deferred.
func (s *Subscription) schedule(concern Concern) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if t, ok := s.timers[concern]; ok {
		t.Reset(s.debounce)
		return
	}

	s.timers[concern] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, concern)
		closed := s.closed
		s.mu.Unlock()

		if closed || s.suspended() {
			return
		}
		s.onRefresh(concern)
	})
}

// Close stops the subscription; pending timers are canceled.
func (s *Subscription) Close() {
	s.mu.Lock()
	s.closed = true
	for c, t := range s.timers {
		t.Stop()
		delete(s.timers, c)
	}
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose()
	}
}
