package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/persistence/memory"
	"github.com/example/erm/internal/testfixtures"
)

type fakeSystem struct {
	name       string
	connectErr error
	entries    map[string][]RawEntry
	fetchErr   map[string]error
}

func (f *fakeSystem) Name() string { return f.name }

func (f *fakeSystem) Connect(context.Context) error { return f.connectErr }

func (f *fakeSystem) AddEngineerLogin(e persistence.Engineer) (string, bool) {
	return e.JiraID, e.JiraID != ""
}

func (f *fakeSystem) RawEntries(_ context.Context, e persistence.Engineer) ([]RawEntry, error) {
	if err := f.fetchErr[e.JiraID]; err != nil {
		return nil, err
	}
	return f.entries[e.JiraID], nil
}

func (f *fakeSystem) Preprocess(raw []RawEntry, login string) []application.SyncedBooking {
	out := make([]application.SyncedBooking, 0, len(raw))
	for _, r := range raw {
		out = append(out, application.SyncedBooking{Login: login, ProjectID: r.Key + " " + r.Summary, Company: "Acme", SLA: r.SLA})
	}
	return out
}

func TestSyncer_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})
	store := memory.New(clock.Now)

	first := testfixtures.NewEngineer(testfixtures.WithEngineerIDs("first", "", ""))
	second := testfixtures.NewEngineer(testfixtures.WithEngineerIDs("second", "", ""))
	untracked := testfixtures.NewEngineer()
	gone := testfixtures.NewEngineer(testfixtures.WithEngineerIDs("gone", "", ""))
	gone.Active = false
	for _, e := range []persistence.Engineer{first, second, untracked, gone} {
		require.NoError(t, store.CreateEngineer(ctx, e))
	}

	bookings := application.NewBookingService(store, store, nil, nil, clock.Now)
	_, err := bookings.SyncUpsert(ctx, application.SyncedBooking{Login: first.Login, ProjectID: "T-1 Existing", Company: "Acme", SLA: "T"})
	require.NoError(t, err)

	healthy := &fakeSystem{
		name: "tracker",
		entries: map[string][]RawEntry{
			"first": {{Key: "T-1", Summary: "Existing", SLA: "T2"}, {Key: "T-2", Summary: "Fresh", SLA: "T"}},
			"gone":  {{Key: "T-9", Summary: "Ignored"}},
		},
		fetchErr: map[string]error{"second": errors.New("timeout")},
	}
	broken := &fakeSystem{name: "offline", connectErr: errors.New("connection refused")}

	syncer := NewSyncer([]System{broken, healthy}, store, bookings, 2, nil)
	summaries, err := syncer.Run(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "offline", summaries[0].System)
	assert.ErrorContains(t, summaries[0].Err, "connection refused")

	assert.Equal(t, Summary{System: "tracker", Fetched: 2, Inserted: 1, Updated: 1, Failed: 1}, summaries[1])
	assert.Equal(t, "tracker: fetched=2 inserted=1 updated=1 failed=1", summaries[1].String())

	updated, err := store.FindBookingByProject(ctx, first.Login, "T-1 Existing")
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.SLA)

	_, err = store.FindBookingByProject(ctx, gone.Login, "T-9 Ignored")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

type failingEngineers struct{}

func (failingEngineers) ListEngineers(context.Context) ([]persistence.Engineer, error) {
	return nil, errors.New("database is locked")
}

func TestSyncer_RunFailsWithoutEngineers(t *testing.T) {
	t.Parallel()

	syncer := NewSyncer([]System{&fakeSystem{name: "tracker"}}, failingEngineers{}, nil, 0, nil)
	_, err := syncer.Run(context.Background())
	assert.ErrorContains(t, err, "database is locked")
}

func TestSyncer_RunStopsWhenCanceled(t *testing.T) {
	t.Parallel()

	store := memory.New(nil)
	engineer := testfixtures.NewEngineer(testfixtures.WithEngineerIDs("first", "", ""))
	require.NoError(t, store.CreateEngineer(context.Background(), engineer))

	tracker := &fakeSystem{name: "tracker", entries: map[string][]RawEntry{"first": {{Key: "T-1", Summary: "Fresh"}}}}
	bookings := application.NewBookingService(store, store, nil, nil, nil)
	syncer := NewSyncer([]System{tracker}, store, bookings, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summaries, err := syncer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, summaries, 1)
	assert.ErrorIs(t, summaries[0].Err, context.Canceled)
	assert.Zero(t, summaries[0].Fetched)

	_, err = store.FindBookingByProject(context.Background(), engineer.Login, "T-1 Fresh")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
