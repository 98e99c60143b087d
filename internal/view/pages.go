package view

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gravadigital/smartpolls/internal/aggregate"
	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

// dashboardFetchLimit bounds concurrent results requests on the dashboard
const dashboardFetchLimit = 4

// PollReader is the read side of the poll repository
type PollReader interface {
	GetPoll(ctx context.Context, pollID string) (*poll.Poll, error)
	ListPolls(ctx context.Context) ([]*poll.Poll, error)
}

// ResultsReader is the read side of the results repository
type ResultsReader interface {
	GetResults(ctx context.Context, pollID string) (*poll.Results, error)
}

// ResultsPage is everything the results page renders
type ResultsPage struct {
	Poll    *poll.Poll
	Results *poll.Results
	Summary aggregate.Summary
}

// DashboardEntry is one row of the dashboard
type DashboardEntry struct {
	Poll       *poll.Poll
	TotalVotes int
	// ResultsErr is set when the vote total could not be loaded; TotalVotes
	// is meaningless then
	ResultsErr error
}

// LoadResults fetches a poll and its results concurrently
func LoadResults(ctx context.Context, polls PollReader, results ResultsReader, pollID string) (*ResultsPage, error) {
	var p *poll.Poll
	var r *poll.Results

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = polls.GetPoll(gctx, pollID)
		return err
	})
	g.Go(func() error {
		var err error
		r, err = results.GetResults(gctx, pollID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ResultsPage{
		Poll:    p,
		Results: r,
		Summary: aggregate.Summarize(p.Options, r),
	}, nil
}

// LoadPoll fetches the poll shown on the vote page. A poll that cannot be
// voted on (missing ids, fewer than two options) is an error.
func LoadPoll(ctx context.Context, polls PollReader, pollID string) (*poll.Poll, error) {
	p, err := polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("malformed poll %s: %w", pollID, err)
	}
	return p, nil
}

// LoadDashboard lists polls newest first. When results is non-nil the vote
// total of every poll is fetched too; a failed fetch is kept in the entry's
// ResultsErr instead of failing the whole page.
func LoadDashboard(ctx context.Context, polls PollReader, results ResultsReader) ([]DashboardEntry, error) {
	list, err := polls.ListPolls(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]DashboardEntry, len(list))
	for i, p := range list {
		entries[i] = DashboardEntry{Poll: p}
	}
	if results == nil {
		return entries, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardFetchLimit)
	for i := range entries {
		g.Go(func() error {
			r, err := results.GetResults(gctx, entries[i].Poll.ID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				entries[i].ResultsErr = err
				return nil
			}
			entries[i].TotalVotes = aggregate.TotalVotes(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// State is the outcome of the last applied navigation
type State[T any] struct {
	Target string
	Value  T
	Err    error
}

// View loads values for a navigation target and keeps only the result of
// the most recent navigation. Superseded requests run to completion but
// their results are dropped.
type View[T any] struct {
	slot Latest[State[T]]
	load func(ctx context.Context, target string) (T, error)
}

// NewView returns a view that loads navigation targets with load
func NewView[T any](load func(ctx context.Context, target string) (T, error)) *View[T] {
	return &View[T]{load: load}
}

// NewResultsView builds the results page view
func NewResultsView(polls PollReader, results ResultsReader) *View[*ResultsPage] {
	return NewView(func(ctx context.Context, pollID string) (*ResultsPage, error) {
		return LoadResults(ctx, polls, results, pollID)
	})
}

// NewPollView builds the vote page view
func NewPollView(polls PollReader) *View[*poll.Poll] {
	return NewView(func(ctx context.Context, pollID string) (*poll.Poll, error) {
		return LoadPoll(ctx, polls, pollID)
	})
}

// NewDashboardView builds the dashboard view; the target is ignored
func NewDashboardView(polls PollReader, results ResultsReader) *View[[]DashboardEntry] {
	return NewView(func(ctx context.Context, _ string) ([]DashboardEntry, error) {
		return LoadDashboard(ctx, polls, results)
	})
}

// Navigate loads target and reports whether its result was applied
func (v *View[T]) Navigate(ctx context.Context, target string) bool {
	ticket := v.slot.Begin()
	value, err := v.load(ctx, target)
	return v.slot.Commit(ticket, State[T]{Target: target, Value: value, Err: err})
}

// Close tears the view down; pending navigations will not be applied
func (v *View[T]) Close() {
	v.slot.Cancel()
}

// State returns the last applied navigation result
func (v *View[T]) State() (State[T], bool) {
	return v.slot.Get()
}
