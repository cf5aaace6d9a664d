package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api/metrics"
)

// ErrStopped is returned for work submitted after the sequencer stopped.
var ErrStopped = errors.New("sequencer stopped")

// lane orders the work of one session key. tail is closed when the most
// recently submitted operation finishes or gives up its turn.
type lane struct {
	tail chan struct{}
	refs int
}

// Sequencer runs work submitted for one session key one at a time in
// submission order. Work for different keys runs concurrently, optionally
// bounded by a shared limit on running operations.
type Sequencer struct {
	mu      sync.Mutex
	lanes   map[string]*lane
	slots   chan struct{}
	stopped chan struct{}
	log     zerolog.Logger
}

// NewSequencer creates a Sequencer that runs at most maxRunning operations at
// once across all keys. If maxRunning <= 0, cross-key concurrency is unbounded.
func NewSequencer(maxRunning int, log zerolog.Logger) *Sequencer {
	s := &Sequencer{
		lanes:   make(map[string]*lane),
		stopped: make(chan struct{}),
		log:     log,
	}
	if maxRunning > 0 {
		s.slots = make(chan struct{}, maxRunning)
	}
	return s
}

// Start ties the sequencer to ctx. Once ctx is cancelled new work is rejected
// with ErrStopped.
func (s *Sequencer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		close(s.stopped)
	}()
}

// Do runs fn after every operation previously submitted for key and waits for
// its result. fn must not call Do for the same key.
//
// If ctx ends while fn is still queued, fn is skipped; once fn has started it
// runs to completion, and Do returns ctx.Err() without waiting.
func (s *Sequencer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	select {
	case <-s.stopped:
		return ErrStopped
	default:
	}

	prev, turn := s.enqueue(key)
	release := func() { s.release(key, turn) }

	// A caller that gives up still holds its place until its predecessor is
	// done, so later work for the key keeps its order.
	abandon := func(err error) error {
		go func() {
			<-prev
			release()
		}()
		return err
	}

	select {
	case <-prev:
	case <-ctx.Done():
		return abandon(ctx.Err())
	case <-s.stopped:
		return abandon(ErrStopped)
	}

	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			release()
			return ctx.Err()
		case <-s.stopped:
			release()
			return ErrStopped
		}
	}
	if err := ctx.Err(); err != nil {
		s.freeSlot()
		release()
		return err
	}

	done := make(chan error, 1)
	go func() {
		err := fn(ctx)
		if err != nil {
			s.log.Debug().Err(err).Str("session", key).Msg("sequenced operation failed")
		}
		s.freeSlot()
		release()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue appends a turn to key's lane and returns the channel of the
// operation ahead of it.
func (s *Sequencer) enqueue(key string) (prev <-chan struct{}, turn chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lanes[key]
	if !ok {
		ready := make(chan struct{})
		close(ready)
		l = &lane{tail: ready}
		s.lanes[key] = l
	}
	prev = l.tail
	turn = make(chan struct{})
	l.tail = turn
	l.refs++
	metrics.SequencerQueueDepth.Inc()
	return prev, turn
}

func (s *Sequencer) release(key string, turn chan struct{}) {
	close(turn)

	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.SequencerQueueDepth.Dec()
	l := s.lanes[key]
	l.refs--
	if l.refs == 0 {
		delete(s.lanes, key)
	}
}

func (s *Sequencer) freeSlot() {
	if s.slots != nil {
		<-s.slots
	}
}

// active reports how many keys have queued or running work.
func (s *Sequencer) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}
