// Package binder adapts the repository's video stream into state that
// front-ends can observe, and front-end save intents into repository calls.
//
// The upstream subscription is shared by every observer. It starts with the
// first observer and is torn down once the last observer has been gone for
// the grace period, so brief observer churn does not trigger a fresh query.
package binder

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/model"
)

var (
	// ErrInvalidInput is reported to the user when the reference or caption is blank.
	ErrInvalidInput = errors.New("pick a video and add a caption")
	// ErrClosed is passed to onDone for saves requested after Close.
	ErrClosed = errors.New("binder closed")
)

// Source is the part of the repository the binder consumes
type Source interface {
	Videos(ctx context.Context) <-chan []model.Video
	SaveVideo(ctx context.Context, uri, caption string) error
}

// ValidateInput checks a save request before it is handed to AddVideo.
func ValidateInput(uri, caption string) error {
	if strings.TrimSpace(uri) == "" || strings.TrimSpace(caption) == "" {
		return ErrInvalidInput
	}
	return nil
}

type observer struct {
	ch chan []model.Video
}

// Binder holds the latest video list for front-ends
type Binder struct {
	source Source
	grace  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	saves  sync.WaitGroup

	mu          sync.Mutex
	state       []model.Video
	observers   map[*observer]struct{}
	upstream    context.CancelFunc
	upstreamGen uint64
	fresh       bool
	teardown    *time.Timer
	closed      bool
}

// New creates a binder. Nothing is read from source until the first Subscribe.
func New(source Source, cfg config.BinderConfig) *Binder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Binder{
		source:    source,
		grace:     cfg.GracePeriod,
		ctx:       ctx,
		cancel:    cancel,
		state:     []model.Video{},
		observers: make(map[*observer]struct{}),
	}
}

// Videos returns a copy of the latest list
func (b *Binder) Videos() []model.Video {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.state)
}

// Observers returns the number of active observers
func (b *Binder) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

// Snapshot observes the list just long enough to read a value delivered by the
// live subscription, rather than a cached one left from an earlier subscription.
func (b *Binder) Snapshot(ctx context.Context) ([]model.Video, error) {
	ch, cancel := b.Subscribe()
	defer cancel()

	videos, ok := <-ch
	if !ok {
		return nil, ErrClosed
	}

	b.mu.Lock()
	fresh := b.fresh
	b.mu.Unlock()

	if fresh {
		// A publish may have landed after the initial value was taken.
		select {
		case latest, ok := <-ch:
			if ok {
				videos = latest
			}
		default:
		}
		return videos, nil
	}

	select {
	case latest, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return latest, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe registers an observer. The channel holds the current list
// immediately and then each update; a slow reader only sees the latest one.
// The returned func unsubscribes and closes the channel.
func (b *Binder) Subscribe() (<-chan []model.Video, func()) {
	obs := &observer{ch: make(chan []model.Video, 1)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(obs.ch)
		return obs.ch, func() {}
	}

	obs.ch <- slices.Clone(b.state)
	b.observers[obs] = struct{}{}

	if b.teardown != nil {
		b.teardown.Stop()
		b.teardown = nil
	}
	if b.upstream == nil {
		b.startUpstreamLocked()
	}

	var once sync.Once
	return obs.ch, func() {
		once.Do(func() { b.unsubscribe(obs) })
	}
}

func (b *Binder) unsubscribe(obs *observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.observers[obs]; !ok {
		return
	}
	delete(b.observers, obs)
	close(obs.ch)

	if len(b.observers) == 0 && b.upstream != nil {
		b.scheduleTeardownLocked()
	}
}

func (b *Binder) scheduleTeardownLocked() {
	if b.grace <= 0 {
		b.stopUpstreamLocked()
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(b.grace, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.teardown != timer || len(b.observers) > 0 {
			return
		}
		b.teardown = nil
		b.stopUpstreamLocked()
		log.Debug().Dur("grace", b.grace).Msg("Video subscription torn down")
	})
	b.teardown = timer
}

func (b *Binder) startUpstreamLocked() {
	ctx, cancel := context.WithCancel(b.ctx)
	b.upstream = cancel
	b.upstreamGen++
	b.fresh = false

	log.Debug().Uint64("generation", b.upstreamGen).Msg("Video subscription started")
	go b.collect(b.upstreamGen, b.source.Videos(ctx))
}

func (b *Binder) stopUpstreamLocked() {
	if b.upstream == nil {
		return
	}
	b.upstream()
	b.upstream = nil
}

// collect copies snapshots from one upstream generation into the state
func (b *Binder) collect(gen uint64, videos <-chan []model.Video) {
	for snapshot := range videos {
		b.publish(gen, snapshot)
	}

	// The stream ended on its own (read fault) or was cancelled. Either way
	// the next observer starts a fresh one.
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen == b.upstreamGen && b.upstream != nil {
		log.Warn().Uint64("generation", gen).Msg("Video subscription ended unexpectedly")
		b.stopUpstreamLocked()
	}
}

func (b *Binder) publish(gen uint64, snapshot []model.Video) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.upstreamGen || b.upstream == nil {
		return
	}
	if snapshot == nil {
		snapshot = []model.Video{}
	}
	b.state = snapshot
	b.fresh = true
	for obs := range b.observers {
		offer(obs.ch, slices.Clone(snapshot))
	}
}

// offer replaces any unread value in ch. Callers hold b.mu, so they are the
// only senders.
func offer(ch chan []model.Video, videos []model.Video) {
	select {
	case ch <- videos:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- videos
}

// AddVideo saves a video in the background and then calls onDone once with
// the result. It does not validate its input; see ValidateInput.
func (b *Binder) AddVideo(uri, caption string, onDone func(error)) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		if onDone != nil {
			onDone(ErrClosed)
		}
		return
	}
	b.saves.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.saves.Done()

		err := b.source.SaveVideo(b.ctx, uri, caption)
		if err != nil {
			log.Error().Stack().Err(err).Str("uri", uri).Msg("Failed to save video")
		} else {
			log.Info().Str("uri", uri).Msg("Video saved")
		}

		if onDone != nil {
			onDone(err)
		}
	}()
}

// Close tears down the subscription, closes every observer channel and waits
// for in-flight saves to finish.
func (b *Binder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.teardown != nil {
		b.teardown.Stop()
		b.teardown = nil
	}
	b.stopUpstreamLocked()
	for obs := range b.observers {
		close(obs.ch)
		delete(b.observers, obs)
	}
	b.mu.Unlock()

	b.saves.Wait()
	b.cancel()
}
