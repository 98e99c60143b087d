package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func storeFactories(t *testing.T) map[string]func(opts ...Option) PollStore {
	return map[string]func(opts ...Option) PollStore{
		"memory": func(opts ...Option) PollStore {
			return NewMemoryStore(opts...)
		},
		"sqlite": func(opts ...Option) PollStore {
			cfg := &config.Config{}
			cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "polls.db")

			store, err := NewFactory(StorageTypeSQLite, opts...).CreateStore(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func TestPollStore(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &tickingClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			store := open(WithClock(clock.Now))

			first, err := store.CreatePoll(ctx, NewPoll{Question: "Lunch?", Options: []string{" Pizza ", "Sushi"}})
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.Equal(t, "2026-03-01T12:00:01.000Z", first.CreatedAt)
			require.Len(t, first.Options, 2)
			assert.Equal(t, "Pizza", first.Options[0].Text)
			assert.NotEqual(t, first.Options[0].ID, first.Options[1].ID)

			second, err := store.CreatePoll(ctx, NewPoll{Question: "Dinner?", Options: []string{"Tacos", "Ramen", "Salad"}})
			require.NoError(t, err)

			got, err := store.GetPoll(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, first, got)

			list, err := store.ListPolls(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			ids := []string{list[0].ID, list[1].ID}
			assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

			// votes
			require.NoError(t, store.RecordVote(ctx, first.ID, first.Options[1].ID, "voter-1"))
			require.NoError(t, store.RecordVote(ctx, first.ID, first.Options[1].ID, "voter-2"))
			assert.ErrorIs(t, store.RecordVote(ctx, first.ID, first.Options[0].ID, "voter-1"), ErrAlreadyVoted)
			assert.ErrorIs(t, store.RecordVote(ctx, first.ID, second.Options[0].ID, "voter-3"), ErrInvalidOption)
			assert.ErrorIs(t, store.RecordVote(ctx, "missing", "x", "voter-3"), ErrPollNotFound)
			require.NoError(t, store.RecordVote(ctx, second.ID, second.Options[0].ID, "voter-1"))

			results, err := store.Results(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{first.Options[1].ID: 2}, results.Votes)

			_, err = store.Results(ctx, "missing")
			assert.ErrorIs(t, err, ErrPollNotFound)

			// deletion cascades
			require.NoError(t, store.DeletePoll(ctx, first.ID))
			assert.ErrorIs(t, store.DeletePoll(ctx, first.ID), ErrPollNotFound)

			_, err = store.GetPoll(ctx, first.ID)
			assert.ErrorIs(t, err, ErrPollNotFound)

			list, err = store.ListPolls(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, second.ID, list[0].ID)

			results, err = store.Results(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, results.CountFor(second.Options[0].ID))
		})
	}
}

func TestPollStoreConcurrentVotes(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open()

			p, err := store.CreatePoll(ctx, NewPoll{Question: "Q", Options: []string{"A", "B"}})
			require.NoError(t, err)

			const voters = 10
			var wg sync.WaitGroup
			errs := make([]error, voters*2)
			for i := 0; i < voters*2; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = store.RecordVote(ctx, p.ID, p.Options[i%2].ID, fmt.Sprintf("voter-%d", i/2))
				}(i)
			}
			wg.Wait()

			rejected := 0
			for _, err := range errs {
				if err != nil {
					require.ErrorIs(t, err, ErrAlreadyVoted)
					rejected++
				}
			}
			assert.Equal(t, voters, rejected)

			results, err := store.Results(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, voters, results.CountFor(p.Options[0].ID)+results.CountFor(p.Options[1].ID))
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithIDGenerator(sequence()))

	p, err := store.CreatePoll(ctx, NewPoll{Question: "Q", Options: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "id-3", p.Options[1].ID)

	p.Options[0].Text = "changed"
	got, err := store.GetPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Options[0].Text)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().ListPolls(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPollStoreHealth(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			assert.NoError(t, store.Health(context.Background()))
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryStore().Health(ctx), context.Canceled)
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		err  error
		want poll.Reason
		ok   bool
	}{
		{ErrAlreadyVoted, poll.ReasonAlreadyVoted, true},
		{fmt.Errorf("wrapped: %w", ErrInvalidOption), poll.ReasonInvalidOption, true},
		{ErrPollNotFound, poll.ReasonPollNotFound, true},
		{context.Canceled, poll.ReasonUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ReasonFor(tt.err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestValidateStorageType(t *testing.T) {
	st, err := ValidateStorageType("sqlite")
	require.NoError(t, err)
	assert.Equal(t, StorageTypeSQLite, st)

	_, err = ValidateStorageType("mongo")
	assert.Error(t, err)

	_, err = NewFactory("mongo").CreateStore(&config.Config{})
	assert.EqualError(t, err, "unsupported storage type: mongo")
}

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
