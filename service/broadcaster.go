// Package service streams a running core.CoreState's TraceEvents to
// WebSocket clients, adapted from the teacher's session-broadcast hub: a
// single goroutine fans events out to subscriptions, each backed by a
// buffered channel so one slow client cannot stall the core's step loop.
package service

import (
	"sync"

	"github.com/lucaspiller/n1core/core"
)

// Subscription is one client's feed of trace events; Channel is closed when
// the subscription is unregistered.
type Subscription struct {
	Channel chan core.TraceEvent
}

// Broadcaster fans TraceEvents out to every active Subscription. The core
// never talks to it directly; the CLI's run loop wraps Broadcast in a
// core.TraceSink and hands that to CoreConfig.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan core.TraceEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster starts a broadcaster's event loop and returns it.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan core.TraceEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case ev := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				select {
				case sub.Channel <- ev:
				default:
					// subscriber too slow; drop rather than block the core's step loop
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new subscription and returns it.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{Channel: make(chan core.TraceEvent, 64)}
	b.register <- sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast publishes ev to every matching subscription, non-blocking: a
// full broadcast queue drops the event rather than stall the caller (the
// core's step loop, via a TraceSink).
func (b *Broadcaster) Broadcast(ev core.TraceEvent) {
	select {
	case b.broadcast <- ev:
	default:
	}
}

// Close shuts the broadcaster down and closes every open subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount reports how many clients are currently subscribed.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
