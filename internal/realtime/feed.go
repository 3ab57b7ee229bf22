package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"savora-be/internal/catalog"
	"savora-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Channel is the NOTIFY channel the row-change triggers post to.
const Channel = "data_changes"

// Event is the trigger payload: which table changed, how, and for whom.
// user_id is only set for per-user tables (addresses).
type Event struct {
	Table  string `json:"table"`
	Op     string `json:"op"`
	ID     string `json:"id"`
	UserID *uint  `json:"user_id,omitempty"`
}

// ProductRef maps a row-level product event to its catalog ref. Category and
// non-product events report false.
func (e Event) ProductRef() (catalog.ProductRef, bool) {
	var kind catalog.RefKind
	switch e.Table {
	case "menu_items":
		kind = catalog.KindMenuItem
	case "dishes":
		kind = catalog.KindDish
	case "legacy_products":
		kind = catalog.KindLegacy
	default:
		return catalog.ProductRef{}, false
	}
	return catalog.ProductRef{Kind: kind, ID: e.ID}, true
}

// Feed listens on a dedicated Postgres connection and fans row-change events
// out to subscriptions. pq.Listener reconnects with backoff on its own; a
// reconnect is surfaced as a nil notification, which we turn into a full
// refresh signal since events may have been missed.
type Feed struct {
	listener *pq.Listener

	mu   sync.RWMutex
	subs map[*Subscription]struct{}

	onEvent func(Event)
	onReset func()

	done chan struct{}
}

func NewFeed(dsn string) *Feed {
	f := &Feed{
		subs: make(map[*Subscription]struct{}),
		done: make(chan struct{}),
	}

	f.listener = pq.NewListener(dsn, 2*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.L().Warn("realtime listener event",
					zap.Int("event", int(ev)), zap.Error(err))
			}
		})

	return f
}

// Run blocks until ctx is canceled, dispatching notifications to subscribers.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.listener.Listen(Channel); err != nil {
		return err
	}
	defer f.listener.Close()

	logger.L().Info("realtime feed started", zap.String("channel", Channel))

	for {
		select {
		case <-ctx.Done():
			close(f.done)
			return ctx.Err()

		case n := <-f.listener.Notify:
			if n == nil {
				// Connection was re-established; anything could have
				// changed in the gap.
				f.dispatchAll()
				continue
			}

			var ev Event
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				logger.L().Warn("bad realtime payload",
					zap.String("payload", n.Extra), zap.Error(err))
				continue
			}
			f.dispatch(ev)

		case <-time.After(90 * time.Second):
			// Keepalive; also detects silently dropped connections.
			go f.listener.Ping()
		}
	}
}

// OnEvent registers a callback invoked for every decoded event before fan-out.
// Set before Run; used for resolver cache invalidation.
func (f *Feed) OnEvent(fn func(Event)) { f.onEvent = fn }

// OnReset registers a callback invoked when the listener reconnects and
// events may have been lost.
func (f *Feed) OnReset(fn func()) { f.onReset = fn }

func (f *Feed) dispatch(ev Event) {
	if f.onEvent != nil {
		f.onEvent(ev)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		sub.offer(ev)
	}
}

func (f *Feed) dispatchAll() {
	if f.onReset != nil {
		f.onReset()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs {
		sub.offerAll()
	}
}

// Subscribe registers a subscription until its Close is called.
func (f *Feed) Subscribe(sub *Subscription) {
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	sub.onClose = func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
	}
}
