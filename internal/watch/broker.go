// Package watch provides push-based query subscriptions over the durable
// store. A subscription registers a fetch function keyed to the tables it
// reads; every committing write that touches one of those tables triggers a
// re-evaluation and re-delivery of the full result set.
package watch

import (
	"log"
	"sync"
	"time"
)

// Update carries one re-evaluated result set to a subscriber.
type Update struct {
	Key  string
	Data interface{}
}

// FetchFunc re-runs the subscription's query against the store.
type FetchFunc func() (interface{}, error)

const defaultIdleGrace = 5 * time.Second

// Broker fans store change notifications out to query subscriptions.
// Delivery is latest-wins: a slow consumer sees the newest snapshot, not a
// backlog. A consumer that stops draining past the idle grace period is
// released to conserve resources; resubscribing replays current state.
type Broker struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	idleGrace time.Duration
}

type Subscription struct {
	Key string

	broker  *Broker
	fetch   FetchFunc
	tables  map[string]struct{}
	ch      chan Update
	blocked time.Time // zero when the consumer is keeping up
	closed  bool
}

func NewBroker() *Broker {
	return &Broker{
		subs:      make(map[*Subscription]struct{}),
		idleGrace: defaultIdleGrace,
	}
}

// NewBrokerWithGrace is for tests that need a short idle window.
func NewBrokerWithGrace(grace time.Duration) *Broker {
	b := NewBroker()
	b.idleGrace = grace
	return b
}

// Subscribe registers a query and immediately delivers its current result.
func (b *Broker) Subscribe(key string, tables []string, fetch FetchFunc) *Subscription {
	sub := &Subscription{
		Key:    key,
		broker: b,
		fetch:  fetch,
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan Update, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	b.deliver(sub)
	return sub
}

// Updates is the stream of re-evaluated result sets.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Close tears the subscription down deterministically. Safe to call twice.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.broker.release(s)
}

// Notify re-evaluates and re-delivers every subscription whose query reads
// one of the given tables. Services call this after each commit.
func (b *Broker) Notify(tables ...string) {
	b.mu.Lock()
	affected := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		for _, t := range tables {
			if _, ok := sub.tables[t]; ok {
				affected = append(affected, sub)
				break
			}
		}
	}
	b.mu.Unlock()

	for _, sub := range affected {
		b.deliver(sub)
	}
}

func (b *Broker) deliver(sub *Subscription) {
	data, err := sub.fetch()
	if err != nil {
		log.Printf("[watch] fetch for %q failed: %v", sub.Key, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}

	select {
	case sub.ch <- Update{Key: sub.Key, Data: data}:
		sub.blocked = time.Time{}
	default:
		// Consumer has not drained the last snapshot. Replace it with the
		// newest one; if nobody has been draining for a while, release the
		// subscription entirely.
		if sub.blocked.IsZero() {
			sub.blocked = time.Now()
		} else if time.Since(sub.blocked) > b.idleGrace {
			log.Printf("[watch] releasing idle subscription %q", sub.Key)
			b.release(sub)
			return
		}
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- Update{Key: sub.Key, Data: data}
	}
}

// release must be called with b.mu held.
func (b *Broker) release(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(b.subs, sub)
	close(sub.ch)
}

// Len reports the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
