package explorer

import (
	"context"

	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

// Session is one remote pipeline session: opened once, mutated by tool
// dispatches, and spent by exactly one terminal drain. A drained session
// refuses further use with ErrSessionDrained; sessions are never reused
// or resumed after a failure.
type Session struct {
	client  *Client
	id      string
	drained bool
}

// OpenSession initializes a fresh remote session.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	id, err := c.InitSession(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, id: id}, nil
}

// ID returns the session's connection id.
func (s *Session) ID() string { return s.id }

// Apply dispatches one tool to the session's pipeline, routing search
// tools to their dedicated endpoints.
func (s *Session) Apply(ctx context.Context, tool wire.Tool) error {
	if s.drained {
		return ErrSessionDrained
	}
	var err error
	if wire.IsSearch(tool) {
		_, err = s.client.Search(ctx, s.id, tool)
	} else {
		_, err = s.client.CallTool(ctx, s.id, tool)
	}
	return err
}

// Collect drains the session and returns its accumulated items. The
// session is spent even when the drain fails.
func (s *Session) Collect(ctx context.Context, rng *wire.Range) ([]any, error) {
	if s.drained {
		return nil, ErrSessionDrained
	}
	s.drained = true
	s.client.metrics.RecordDrain("collect")
	return s.client.Collect(ctx, s.id, rng)
}

// Count drains the session into its item count.
func (s *Session) Count(ctx context.Context) (any, error) {
	if s.drained {
		return nil, ErrSessionDrained
	}
	s.drained = true
	s.client.metrics.RecordDrain("count")
	return s.client.AggregateBy(ctx, s.id, nil)
}

// Aggregate drains the session through the aggregate reducer.
func (s *Session) Aggregate(ctx context.Context, properties []string) (any, error) {
	if s.drained {
		return nil, ErrSessionDrained
	}
	s.drained = true
	s.client.metrics.RecordDrain("aggregate_by")
	return s.client.AggregateBy(ctx, s.id, properties)
}

// Group drains the session through the group reducer.
func (s *Session) Group(ctx context.Context, properties []string) (any, error) {
	if s.drained {
		return nil, ErrSessionDrained
	}
	s.drained = true
	s.client.metrics.RecordDrain("group_by")
	return s.client.GroupBy(ctx, s.id, properties)
}
