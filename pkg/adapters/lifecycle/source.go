// Package lifecycle exposes blend store events as a lifecycle.Source so they
// can be consumed next to the other event sources of a supervised process.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/anttttti/DuneBlend/pkg/core"
)

type blendSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	accept map[core.EventType]bool
}

// SourceOption configures a blend event source.
type SourceOption func(*blendSource)

// WithTypes restricts the source to the given event types.
func WithTypes(types ...core.EventType) SourceOption {
	return func(s *blendSource) {
		s.accept = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.accept[t] = true
		}
	}
}

// NewSource creates a lifecycle.Source that emits blend events.
// core.Event satisfies lifecycle.Event through its String method.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &blendSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *blendSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the store closes its channel.
func (s *blendSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.accept != nil && !s.accept[e.Type] {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
