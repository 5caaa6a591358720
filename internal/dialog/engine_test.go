package dialog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vferraz/agendabot/internal/models"
	"github.com/vferraz/agendabot/internal/store"
)

// setupEngine builds an engine over a throwaway SQLite store with the clock
// pinned to mid-2024.
func setupEngine(t *testing.T) (*Engine, store.EventStore) {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close(context.Background())
	})

	e := NewEngine(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return e, s
}

func TestCreateFlow_HappyPath(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	reply, err := e.Command(ctx, 100, "schedule", st)
	require.NoError(t, err)
	assert.Equal(t, msgAskDate, reply.Text)
	assert.Equal(t, FlowCreate, st.Kind)
	assert.Equal(t, StepDate, st.Step)

	reply, err = e.Message(ctx, 100, "25/12", st)
	require.NoError(t, err)
	assert.Equal(t, msgAskDescription, reply.Text)
	assert.Equal(t, StepDescription, st.Step)
	assert.Equal(t, "25/12/2024", st.Date)

	reply, err = e.Message(ctx, 100, "Dentist", st)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "25/12/2024")
	assert.Contains(t, reply.Text, "Dentist")
	assert.True(t, reply.Markdown)
	assert.False(t, st.Active())

	events, err := s.ListEvents(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "25/12/2024", events[0].Date)
	assert.Equal(t, "Dentist", events[0].Description)

	// Flow is done; arbitrary text is no longer part of it.
	reply, err = e.Message(ctx, 100, "anything", st)
	require.NoError(t, err)
	assert.Empty(t, reply.Text)
	events, err = s.ListEvents(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCreateFlow_RetriesOnBadDate(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	_, err := e.Command(ctx, 100, "schedule", st)
	require.NoError(t, err)

	for _, bad := range []string{"99/99", "1/2/3/4", "abc"} {
		reply, err := e.Message(ctx, 100, bad, st)
		require.NoError(t, err)
		assert.Equal(t, msgBadDate, reply.Text)
		assert.Equal(t, StepDate, st.Step, "flow must stay on the date step after %q", bad)
	}

	// A valid date after any number of failures works normally.
	reply, err := e.Message(ctx, 100, "31/10", st)
	require.NoError(t, err)
	assert.Equal(t, msgAskDescription, reply.Text)
	assert.Equal(t, "31/10/2024", st.Date)
}

func TestDeleteFlow_HappyPath(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	_, err := s.CreateEvent(ctx, 100, "10/01/2024", "first")
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, 100, "20/02/2024", "second")
	require.NoError(t, err)

	reply, err := e.Command(ctx, 100, "delete", st)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "1. 📅 *10/01/2024*")
	assert.Contains(t, reply.Text, "2. 📅 *20/02/2024*")
	assert.Equal(t, FlowDelete, st.Kind)
	require.Len(t, st.Candidates, 2)

	reply, err = e.Message(ctx, 100, "2", st)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "20/02/2024")
	assert.Contains(t, reply.Text, "second")
	assert.False(t, st.Active())

	events, err := s.ListEvents(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "first", events[0].Description)
}

func TestDeleteFlow_SnapshotSurvivesConcurrentDelete(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	id, err := s.CreateEvent(ctx, 100, "10/01/2024", "doomed")
	require.NoError(t, err)

	_, err = e.Command(ctx, 100, "delete", st)
	require.NoError(t, err)
	require.Len(t, st.Candidates, 1)

	// Someone else removes the row while the user is deciding.
	removed, err := s.DeleteEvent(ctx, id, 100)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	reply, err := e.Message(ctx, 100, "1", st)
	require.NoError(t, err)
	assert.Equal(t, msgAlreadyRemoved, reply.Text)
	assert.False(t, st.Active())
}

func TestDeleteFlow_InputErrorsRetryInPlace(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	_, err := s.CreateEvent(ctx, 100, "10/01/2024", "only one")
	require.NoError(t, err)

	_, err = e.Command(ctx, 100, "delete", st)
	require.NoError(t, err)

	reply, err := e.Message(ctx, 100, "not a number", st)
	require.NoError(t, err)
	assert.Equal(t, msgChoiceNotANumber, reply.Text)
	assert.Equal(t, StepChoice, st.Step)

	for _, out := range []string{"0", "2", "-3"} {
		reply, err = e.Message(ctx, 100, out, st)
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "between 1 and 1")
		assert.Equal(t, StepChoice, st.Step, "flow must stay on the choice step after %q", out)
	}

	reply, err = e.Message(ctx, 100, "1", st)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "only one")
	assert.False(t, st.Active())
}

func TestDeleteFlow_NothingToDelete(t *testing.T) {
	e, _ := setupEngine(t)
	st := &FlowState{}

	reply, err := e.Command(context.Background(), 100, "delete", st)
	require.NoError(t, err)
	assert.Equal(t, msgNothingToDelete, reply.Text)
	assert.False(t, st.Active(), "flow must not start with an empty store")
}

func TestCancel_FromEveryActiveStep(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, 100, "10/01/2024", "keep me")
	require.NoError(t, err)

	enter := map[string]func(st *FlowState){
		"mid date entry": func(st *FlowState) {
			_, err := e.Command(ctx, 100, "schedule", st)
			require.NoError(t, err)
		},
		"mid description entry": func(st *FlowState) {
			_, err := e.Command(ctx, 100, "schedule", st)
			require.NoError(t, err)
			_, err = e.Message(ctx, 100, "25/12", st)
			require.NoError(t, err)
		},
		"mid choice entry": func(st *FlowState) {
			_, err := e.Command(ctx, 100, "delete", st)
			require.NoError(t, err)
		},
	}

	for name, setup := range enter {
		t.Run(name, func(t *testing.T) {
			st := &FlowState{}
			setup(st)
			require.True(t, st.Active())

			reply, err := e.Command(ctx, 100, "cancel", st)
			require.NoError(t, err)
			assert.Equal(t, msgCancelled, reply.Text)
			assert.Equal(t, FlowState{}, *st, "cancel must clear all scratch data")

			// A fresh flow starts clean afterwards.
			_, err = e.Command(ctx, 100, "schedule", st)
			require.NoError(t, err)
			assert.Equal(t, StepDate, st.Step)
			assert.Empty(t, st.Date)
		})
	}
}

func TestCancel_Idle(t *testing.T) {
	e, _ := setupEngine(t)
	st := &FlowState{}

	reply, err := e.Command(context.Background(), 100, "cancel", st)
	require.NoError(t, err)
	assert.Equal(t, msgNothingToCancel, reply.Text)
}

func TestEntryCommandDiscardsActiveFlow(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	_, err := s.CreateEvent(ctx, 100, "10/01/2024", "existing")
	require.NoError(t, err)

	// Start creating, get as far as holding a scratch date.
	_, err = e.Command(ctx, 100, "schedule", st)
	require.NoError(t, err)
	_, err = e.Message(ctx, 100, "25/12", st)
	require.NoError(t, err)
	require.Equal(t, "25/12/2024", st.Date)

	// Entering delete replaces the create flow wholesale.
	_, err = e.Command(ctx, 100, "delete", st)
	require.NoError(t, err)
	assert.Equal(t, FlowDelete, st.Kind)
	assert.Empty(t, st.Date, "old scratch must not leak into the new flow")
}

func TestList(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()
	st := &FlowState{}

	reply, err := e.Command(ctx, 100, "list", st)
	require.NoError(t, err)
	assert.Equal(t, msgNoEvents, reply.Text)

	_, err = s.CreateEvent(ctx, 100, "25/12/2024", "Dentist")
	require.NoError(t, err)

	reply, err = e.Command(ctx, 100, "list", st)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "1. 📅 *25/12/2024*")
	assert.Contains(t, reply.Text, "Dentist")
	assert.True(t, reply.Markdown)
	assert.False(t, st.Active(), "list is stateless")
}

func TestOwnerIsolation(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, 1, "25/12/2024", "A's secret")
	require.NoError(t, err)

	reply, err := e.Command(ctx, 2, "list", &FlowState{})
	require.NoError(t, err)
	assert.Equal(t, msgNoEvents, reply.Text)

	reply, err = e.Command(ctx, 2, "delete", &FlowState{})
	require.NoError(t, err)
	assert.Equal(t, msgNothingToDelete, reply.Text)
}

func TestUnknownCommand(t *testing.T) {
	e, _ := setupEngine(t)

	reply, err := e.Command(context.Background(), 100, "frobnicate", &FlowState{})
	require.NoError(t, err)
	assert.Equal(t, msgUnknownCommand, reply.Text)
}

func TestIdleTextIsIgnored(t *testing.T) {
	e, _ := setupEngine(t)
	st := &FlowState{}

	reply, err := e.Message(context.Background(), 100, "hello there", st)
	require.NoError(t, err)
	assert.Empty(t, reply.Text)
	assert.False(t, st.Active())
}

// failingStore errors on every operation, standing in for a broken backend.
type failingStore struct{}

var errBackend = errors.New("backend down")

func (failingStore) CreateEvent(context.Context, int64, string, string) (int64, error) {
	return 0, errBackend
}

func (failingStore) ListEvents(context.Context, int64) ([]models.Event, error) {
	return nil, errBackend
}

func (failingStore) ListEventsOn(context.Context, string) ([]models.Event, error) {
	return nil, errBackend
}

func (failingStore) DeleteEvent(context.Context, int64, int64) (int64, error) {
	return 0, errBackend
}

func (failingStore) Close(context.Context) error { return nil }

func TestStoreFailure_GenericReplyAndStateKept(t *testing.T) {
	e := NewEngine(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	// Stateless list: failure message plus the cause for the dispatcher.
	reply, err := e.Command(ctx, 100, "list", &FlowState{})
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, msgStoreFailure, reply.Text)

	// Mid-flow failure leaves the step as it was so the user can retry.
	st := &FlowState{}
	_, err = e.Command(ctx, 100, "schedule", st)
	require.NoError(t, err)
	_, err = e.Message(ctx, 100, "25/12", st)
	require.NoError(t, err)

	reply, err = e.Message(ctx, 100, "Dentist", st)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, msgStoreFailure, reply.Text)
	assert.Equal(t, FlowCreate, st.Kind)
	assert.Equal(t, StepDescription, st.Step)
	assert.Equal(t, "25/12/2024", st.Date)
}
