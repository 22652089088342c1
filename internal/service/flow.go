package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/onlinepayments-demo/internal/cardform"
	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
)

// Flow is one customer's walk through the checkout screens.
type Flow struct {
	ID      string
	Session onlinepayments.Session
	Context onlinepayments.PaymentContext
	Items   *onlinepayments.PaymentItems

	// AssetURL is the base for product logos.
	AssetURL string

	mu       sync.Mutex
	card     *cardform.Controller
	lastSeen time.Time
}

// CardForm returns the active card form, or nil before a card product is
// selected.
func (f *Flow) CardForm() *cardform.Controller {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.card
}

func (f *Flow) setCardForm(c *cardform.Controller) {
	f.mu.Lock()
	f.card = c
	f.mu.Unlock()
}

func (f *Flow) touch(now time.Time) {
	f.mu.Lock()
	f.lastSeen = now
	f.mu.Unlock()
}

func (f *Flow) idleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSeen
}

// FlowStore keeps flows in memory. Flows idle for longer than the TTL are
// removed by Sweep and rejected by Get.
type FlowStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewFlowStore creates a store whose flows expire after ttl of inactivity.
func NewFlowStore(ttl time.Duration) *FlowStore {
	return &FlowStore{
		ttl:   ttl,
		now:   time.Now,
		flows: make(map[string]*Flow),
	}
}

// Create stores a new flow.
func (s *FlowStore) Create(session onlinepayments.Session, pc onlinepayments.PaymentContext, items *onlinepayments.PaymentItems) *Flow {
	flow := &Flow{
		ID:       uuid.NewString(),
		Session:  session,
		Context:  pc,
		Items:    items,
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.flows[flow.ID] = flow
	active := len(s.flows)
	s.mu.Unlock()

	if telemetry.Checkout != nil {
		telemetry.Checkout.ActiveFlows.Set(float64(active))
	}
	return flow
}

// Get returns the flow with id and marks it as used.
func (s *FlowStore) Get(id string) (*Flow, error) {
	if id == "" {
		return nil, ErrFlowNotFound
	}

	now := s.now()

	s.mu.Lock()
	flow, ok := s.flows[id]
	expired := ok && s.expired(flow, now)
	if expired {
		delete(s.flows, id)
	}
	active := len(s.flows)
	s.mu.Unlock()

	if !ok {
		return nil, ErrFlowNotFound
	}
	if expired {
		if telemetry.Checkout != nil {
			telemetry.Checkout.ActiveFlows.Set(float64(active))
			telemetry.Checkout.FlowsExpired.Inc()
		}
		return nil, ErrFlowExpired
	}
	flow.touch(now)
	return flow, nil
}

// Delete removes the flow with id.
func (s *FlowStore) Delete(id string) {
	s.mu.Lock()
	delete(s.flows, id)
	active := len(s.flows)
	s.mu.Unlock()

	if telemetry.Checkout != nil {
		telemetry.Checkout.ActiveFlows.Set(float64(active))
	}
}

// Len returns the number of stored flows.
func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

// Sweep removes expired flows and returns how many were removed.
func (s *FlowStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, flow := range s.flows {
		if s.expired(flow, now) {
			delete(s.flows, id)
			removed++
		}
	}
	active := len(s.flows)
	s.mu.Unlock()

	if telemetry.Checkout != nil {
		telemetry.Checkout.ActiveFlows.Set(float64(active))
		telemetry.Checkout.FlowsExpired.Add(float64(removed))
	}
	return removed, ctx.Err()
}

func (s *FlowStore) expired(flow *Flow, now time.Time) bool {
	return s.ttl > 0 && now.Sub(flow.idleSince()) > s.ttl
}
