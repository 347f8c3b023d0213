package relay

import (
	"sync"

	"lifeline/internal/domain"
)

// Handler receives decrypted application events for one subscription.
// Handlers run on the client's dispatch goroutine and must not block it.
type Handler func(domain.AppEvent)

type subscription struct {
	id      domain.SubscriptionID
	topic   domain.TopicID
	kinds   []int
	handler Handler
	sent    bool // REQ delivered to the relay on the current connection
}

func (s *subscription) matches(topic domain.TopicID, kind int) bool {
	if s.topic != "" && s.topic != topic {
		return false
	}
	if len(s.kinds) == 0 {
		return true
	}
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// subscriptionSet holds live subscriptions in registration order, so replay
// after a reconnect preserves the order handlers were registered in.
type subscriptionSet struct {
	mu    sync.Mutex
	order []domain.SubscriptionID
	subs  map[domain.SubscriptionID]*subscription
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{subs: make(map[domain.SubscriptionID]*subscription)}
}

func (s *subscriptionSet) add(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, sub.id)
	s.subs[sub.id] = sub
}

// remove drops the subscription and reports whether its REQ had been sent.
func (s *subscriptionSet) remove(id domain.SubscriptionID) (existed, sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return false, false
	}
	delete(s.subs, id)
	for i, sid := range s.order {
		if sid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, sub.sent
}

// inOrder returns the live subscriptions in registration order.
func (s *subscriptionSet) inOrder() []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inOrderLocked(nil)
}

// pendingInOrder returns subscriptions whose REQ has not reached the relay.
func (s *subscriptionSet) pendingInOrder() []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inOrderLocked(func(sub *subscription) bool { return !sub.sent })
}

// sentInOrder returns subscriptions with a live REQ on the relay.
func (s *subscriptionSet) sentInOrder() []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inOrderLocked(func(sub *subscription) bool { return sub.sent })
}

func (s *subscriptionSet) inOrderLocked(keep func(*subscription) bool) []*subscription {
	out := make([]*subscription, 0, len(s.order))
	for _, id := range s.order {
		if sub, ok := s.subs[id]; ok && (keep == nil || keep(sub)) {
			out = append(out, sub)
		}
	}
	return out
}

// markSent flags the subscription's REQ as delivered on the current
// connection.
func (s *subscriptionSet) markSent(id domain.SubscriptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		sub.sent = true
	}
}

// markAllUnsent flags every subscription for replay on the next connection.
func (s *subscriptionSet) markAllUnsent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.sent = false
	}
}

func (s *subscriptionSet) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.subs = make(map[domain.SubscriptionID]*subscription)
}
