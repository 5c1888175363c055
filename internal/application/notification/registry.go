package notification

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/infrastructure/metrics"
	"github.com/iams-api/internal/pkg/id"
)

const registryShards = 32

// Subscription is one user's live channel. Published notifications queue
// here without bound until the stream drains them with Next.
type Subscription struct {
	id     string
	userID string

	mu    sync.Mutex
	queue []domain.Notification
	ready chan struct{} // cap 1; signalled when queue goes non-empty
}

func newSubscription(userID string) *Subscription {
	return &Subscription{
		id:     id.New(),
		userID: userID,
		ready:  make(chan struct{}, 1),
	}
}

func (s *Subscription) ID() string     { return s.id }
func (s *Subscription) UserID() string { return s.userID }

func (s *Subscription) push(n domain.Notification) {
	s.mu.Lock()
	s.queue = append(s.queue, n)
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Next returns the oldest queued notification, blocking until one arrives
// or ctx is done.
func (s *Subscription) Next(ctx context.Context) (domain.Notification, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			n := s.queue[0]
			s.queue[0] = domain.Notification{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return n, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Notification{}, ctx.Err()
		case <-s.ready:
		}
	}
}

// Pending reports the number of queued, undelivered notifications.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

type shard struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// Registry maps user ids to their live subscription. Safe for concurrent use.
type Registry struct {
	shards [registryShards]shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].subs = make(map[string]*Subscription)
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	return &r.shards[xxhash.Sum64String(userID)%registryShards]
}

// Subscribe registers a new channel for userID. An existing channel for the
// same user is replaced and stops receiving notifications.
func (r *Registry) Subscribe(userID string) *Subscription {
	sub := newSubscription(userID)
	sh := r.shardFor(userID)
	sh.mu.Lock()
	_, replaced := sh.subs[userID]
	sh.subs[userID] = sub
	sh.mu.Unlock()
	if !replaced {
		metrics.LiveSubscribers.Inc()
	}
	return sub
}

// Unsubscribe removes sub if it is still the registered channel for its user.
// Calling it more than once is harmless.
func (r *Registry) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sh := r.shardFor(sub.userID)
	sh.mu.Lock()
	cur, ok := sh.subs[sub.userID]
	removed := ok && cur == sub
	if removed {
		delete(sh.subs, sub.userID)
	}
	sh.mu.Unlock()
	if removed {
		metrics.LiveSubscribers.Dec()
	}
}

// Publish queues n on the user's channel without blocking. It returns false
// when the user has no open channel.
func (r *Registry) Publish(userID string, n domain.Notification) bool {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	sub, ok := sh.subs[userID]
	sh.mu.RUnlock()
	if !ok {
		metrics.NotificationsPublished.WithLabelValues("no_subscriber").Inc()
		return false
	}
	sub.push(n)
	metrics.NotificationsPublished.WithLabelValues("queued").Inc()
	return true
}

// Len returns the number of users with an open channel.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.subs)
		sh.mu.RUnlock()
	}
	return n
}
