package prefkit

import "sync"

// Observable is a push-based holder of a current value.
type Observable[T any] interface {
	// Value returns the current value.
	Value() T
	// Subscribe returns a channel that receives the current value and every
	// later one. Slow receivers only observe the latest value. The returned
	// func cancels the subscription and closes the channel.
	Subscribe() (<-chan T, func())
}

// State is the Observable implementation used by generated facades.
type State[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[*subscriber[T]]struct{}
	closed bool
}

type subscriber[T any] struct {
	ch chan T
}

// NewState returns a State holding v.
func NewState[T any](v T) *State[T] {
	return &State[T]{value: v, subs: make(map[*subscriber[T]]struct{})}
}

// Value returns the current value.
func (s *State[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe implements Observable.
func (s *State[T]) Subscribe() (<-chan T, func()) {
	sub := &subscriber[T]{ch: make(chan T, 1)}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	sub.ch <- s.value
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[sub]; ok {
				delete(s.subs, sub)
				close(sub.ch)
			}
		})
	}
}

// Publish replaces the current value and notifies subscribers.
func (s *State[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	for sub := range s.subs {
		// Drop the stale value, if any, so the receiver sees the latest one.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- v
	}
}

// Close closes every subscription. Later publishes are ignored.
func (s *State[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.ch)
	}
	clear(s.subs)
}
