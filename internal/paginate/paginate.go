// Package paginate drains cursor-paginated Slack API endpoints while
// pacing successive calls to stay under rate limits.
package paginate

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Default intervals between successive API calls.
const (
	DefaultPageInterval    = 300 * time.Millisecond
	DefaultChannelInterval = 200 * time.Millisecond
	DefaultJoinInterval    = 500 * time.Millisecond
)

// Pacing holds the minimum intervals between successive API calls.
// A zero interval disables waiting for that call class.
type Pacing struct {
	Page    time.Duration // between history/listing pages
	Channel time.Duration // between per-channel operations
	Join    time.Duration // after joining a channel
}

// DefaultPacing returns the production pacing intervals.
func DefaultPacing() Pacing {
	return Pacing{
		Page:    DefaultPageInterval,
		Channel: DefaultChannelInterval,
		Join:    DefaultJoinInterval,
	}
}

// NoPacing returns a pacing policy that never waits. Intended for tests.
func NoPacing() Pacing { return Pacing{} }

// Pacer enforces minimum inter-call intervals. The page and channel
// limiters start with one token, so the first wait in each class is free
// and only successive calls are spaced. The join limiter starts spent:
// the delay applies after a join, before whatever call follows it.
type Pacer struct {
	page    *rate.Limiter
	channel *rate.Limiter
	join    *rate.Limiter
}

// NewPacer builds a Pacer from the given pacing policy.
func NewPacer(p Pacing) *Pacer {
	return &Pacer{
		page:    newLimiter(p.Page, false),
		channel: newLimiter(p.Channel, false),
		join:    newLimiter(p.Join, true),
	}
}

func newLimiter(interval time.Duration, spent bool) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	if spent {
		l.Allow()
	}
	return l
}

// Page blocks until the next page fetch is allowed.
func (p *Pacer) Page(ctx context.Context) error { return p.page.Wait(ctx) }

// Channel blocks until the next per-channel operation is allowed.
func (p *Pacer) Channel(ctx context.Context) error { return p.channel.Wait(ctx) }

// Join blocks for the post-join courtesy interval.
func (p *Pacer) Join(ctx context.Context) error { return p.join.Wait(ctx) }

// FetchPage fetches one page of items. An empty cursor requests the first
// page; the returned cursor points at the next page, empty when done.
type FetchPage[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// All drains every page of a cursor-paginated endpoint, waiting on the
// page pacer between successive fetches. On a mid-pagination error it
// returns the items accumulated so far together with the error, so callers
// can degrade to a partial result instead of aborting.
func All[T any](ctx context.Context, pacer *Pacer, fetch FetchPage[T]) ([]T, error) {
	var all []T
	cursor := ""
	for {
		if err := pacer.Page(ctx); err != nil {
			return all, err
		}
		items, next, err := fetch(ctx, cursor)
		all = append(all, items...)
		if err != nil {
			return all, err
		}
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}
