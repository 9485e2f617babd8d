package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blackai-app/backend/internal/ai"
	"github.com/blackai-app/backend/internal/stores/session"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter plays back canned completions and records the prompt it was
// given
type fakeCompleter struct {
	reply     string
	err       error
	deltas    []string
	streamErr error // emitted after deltas, in-stream
	openErr   error // fails CompleteStream before any event

	gotPrompt []ai.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.Message, temperature *float32) (string, error) {
	f.gotPrompt = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, messages []ai.Message, temperature *float32) (<-chan ai.Event, error) {
	f.gotPrompt = messages
	if f.openErr != nil {
		return nil, f.openErr
	}

	events := make(chan ai.Event)
	go func() {
		defer close(events)
		for _, delta := range f.deltas {
			events <- ai.Event{Delta: delta}
		}
		if f.streamErr != nil {
			events <- ai.Event{Err: f.streamErr}
		}
	}()

	return events, nil
}

// recordSink captures forwarded fragments; it can simulate a client
// disconnect after a number of sends
type recordSink struct {
	parts     []string
	failures  int
	failAfter int // 0 means never fail
}

func (s *recordSink) Send(delta string) error {
	if s.failAfter > 0 && len(s.parts) >= s.failAfter {
		return errors.New("client went away")
	}
	s.parts = append(s.parts, delta)
	return nil
}

func (s *recordSink) Fail(err error) {
	s.failures++
}

func newTestService(completer Completer) (*Service, *session.InMemoryStore) {
	store := session.NewInMemoryStore()
	return NewService(store, completer, "", ""), store
}

func seedSession(t *testing.T, store *session.InMemoryStore, userID uuid.UUID) *session.Session {
	t.Helper()

	sess, err := store.CreateSession(context.Background(), userID, "")
	require.NoError(t, err)
	return sess
}

func TestSubmitTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("transcript grows by user then assistant", func(t *testing.T) {
		completer := &fakeCompleter{reply: "Hello! How can I help?"}
		svc, store := newTestService(completer)
		sess := seedSession(t, store, userID)

		turn, err := svc.SubmitTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"})
		require.NoError(t, err)
		assert.Equal(t, session.RoleAssistant, turn.Role)
		assert.Equal(t, "Hello! How can I help?", turn.Content)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, session.RoleUser, loaded.Turns[0].Role)
		assert.Equal(t, "Hi", loaded.Turns[0].Content)
		assert.Equal(t, session.RoleAssistant, loaded.Turns[1].Role)

		// Title stays the placeholder until title generation is invoked
		assert.Equal(t, session.DefaultTitle, loaded.Title)

		// The prompt starts with the system directive and ends with the user turn
		require.NotEmpty(t, completer.gotPrompt)
		assert.Equal(t, session.RoleSystem, completer.gotPrompt[0].Role)
		assert.Equal(t, "Hi", completer.gotPrompt[len(completer.gotPrompt)-1].Content)
	})

	t.Run("upstream failure keeps the user turn", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{err: ai.ErrUpstream})
		sess := seedSession(t, store, userID)

		_, err := svc.SubmitTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"})
		assert.ErrorIs(t, err, ai.ErrUpstream)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 1)
		assert.Equal(t, session.RoleUser, loaded.Turns[0].Role)
	})

	t.Run("non-owner is rejected before any mutation", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{reply: "nope"})
		sess := seedSession(t, store, userID)

		_, err := svc.SubmitTurn(ctx, sess.ID, uuid.New(), sdk.PostTurnRequest{Content: "Hi"})
		assert.ErrorIs(t, err, ErrNotOwner)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Turns)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newTestService(&fakeCompleter{})
		_, err := svc.SubmitTurn(ctx, uuid.New(), userID, sdk.PostTurnRequest{Content: "Hi"})
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{})
		sess := seedSession(t, store, userID)

		_, err := svc.SubmitTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Role: "robot", Content: "Hi"})
		assert.ErrorIs(t, err, ErrInvalidRole)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Turns)
	})
}

func TestStreamTurn(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("forwarded fragments equal the persisted turn", func(t *testing.T) {
		deltas := []string{"The ", "answer ", "is ", "42."}
		svc, store := newTestService(&fakeCompleter{deltas: deltas})
		sess := seedSession(t, store, userID)

		sink := &recordSink{}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		require.NoError(t, err)
		assert.Equal(t, deltas, sink.parts)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, strings.Join(deltas, ""), loaded.Turns[1].Content)
		assert.Equal(t, session.RoleAssistant, loaded.Turns[1].Role)
	})

	t.Run("empty stream appends no assistant turn", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{})
		sess := seedSession(t, store, userID)

		sink := &recordSink{}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		require.NoError(t, err)
		assert.Empty(t, sink.parts)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 1)
		assert.Equal(t, session.RoleUser, loaded.Turns[0].Role)
	})

	t.Run("open failure reported structurally", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{openErr: ai.ErrUpstream})
		sess := seedSession(t, store, userID)

		sink := &recordSink{}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		assert.ErrorIs(t, err, ai.ErrUpstream)
		assert.Empty(t, sink.parts)
		assert.Zero(t, sink.failures)
	})

	t.Run("mid-stream failure after output persists the partial text", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{deltas: []string{"part", "ial"}, streamErr: ai.ErrUpstream})
		sess := seedSession(t, store, userID)

		sink := &recordSink{}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		require.NoError(t, err)
		assert.Equal(t, 1, sink.failures)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, "partial", loaded.Turns[1].Content)
	})

	t.Run("mid-stream failure before output reported structurally", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{streamErr: ai.ErrUpstream})
		sess := seedSession(t, store, userID)

		sink := &recordSink{}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		assert.ErrorIs(t, err, ai.ErrUpstream)
		assert.Zero(t, sink.failures)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 1)
	})

	t.Run("client disconnect persists what was received", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{deltas: []string{"one ", "two ", "three"}})
		sess := seedSession(t, store, userID)

		sink := &recordSink{failAfter: 2}
		err := svc.StreamTurn(ctx, sess.ID, userID, sdk.PostTurnRequest{Content: "Hi"}, sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"one ", "two "}, sink.parts)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, "one two three", loaded.Turns[1].Content)
	})

	t.Run("non-owner is rejected before any mutation", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{deltas: []string{"hi"}})
		sess := seedSession(t, store, userID)

		err := svc.StreamTurn(ctx, sess.ID, uuid.New(), sdk.PostTurnRequest{Content: "Hi"}, &recordSink{})
		assert.ErrorIs(t, err, ErrNotOwner)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Turns)
	})
}

func TestGenerateTitle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("derives from first user turn and strips quotes", func(t *testing.T) {
		completer := &fakeCompleter{reply: `"Quicksort Explained"`}
		svc, store := newTestService(completer)
		sess := seedSession(t, store, userID)

		_, err := store.AppendTurn(ctx, sess.ID, session.RoleUser, "Explain quicksort")
		require.NoError(t, err)

		title, err := svc.GenerateTitle(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Quicksort Explained", title)

		// The one-shot prompt carries the first user turn
		require.Len(t, completer.gotPrompt, 2)
		assert.Equal(t, "Explain quicksort", completer.gotPrompt[1].Content)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Quicksort Explained", loaded.Title)
	})

	t.Run("empty transcript falls back to the default prompt text", func(t *testing.T) {
		completer := &fakeCompleter{reply: "Fresh Start"}
		svc, store := newTestService(completer)
		sess := seedSession(t, store, userID)

		_, err := svc.GenerateTitle(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, session.DefaultTitle, completer.gotPrompt[1].Content)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newTestService(&fakeCompleter{})
		_, err := svc.GenerateTitle(ctx, uuid.New())
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("upstream failure leaves the title unchanged", func(t *testing.T) {
		svc, store := newTestService(&fakeCompleter{err: ai.ErrUpstream})
		sess := seedSession(t, store, userID)

		_, err := svc.GenerateTitle(ctx, sess.ID)
		assert.ErrorIs(t, err, ai.ErrUpstream)

		loaded, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, session.DefaultTitle, loaded.Title)
	})
}
