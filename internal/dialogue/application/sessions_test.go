package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	err error
}

func (f failingStore) Load(context.Context, string) (*domain.ConversationState, error) {
	return nil, f.err
}

func (f failingStore) Save(context.Context, string, *domain.ConversationState) error { return f.err }
func (f failingStore) Delete(context.Context, string) error                          { return f.err }

func TestSessionService_ConversationAcrossCalls(t *testing.T) {
	backend := &fakeBackend{}
	s := newStack(backend, nil)
	store := infrastructure.NewMemorySessionStore(time.Minute)
	sessions := application.NewSessionService(s.machine, store, 60, nil)
	ctx := context.Background()

	result, err := sessions.Chat(ctx, "", "schedule a meeting")
	require.NoError(t, err)
	id := result.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, domain.StageDuration, result.Reply.Stage)

	for _, utterance := range []string{"45 minutes", "friday afternoon", "second"} {
		result, err = sessions.Chat(ctx, id, utterance)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StageConfirm, result.Reply.Stage)

	saved, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, saved.SelectedSlot)
	assert.True(t, at(12, 12, 15).Equal(saved.SelectedSlot.Start))

	result, err = sessions.Chat(ctx, id, "yes")
	require.NoError(t, err)
	require.NotNil(t, result.Reply.Booking)
	require.Len(t, backend.created, 1)
	assert.True(t, at(12, 13, 0).Equal(backend.created[0].End))
}

func TestSessionService_SessionsAreIndependent(t *testing.T) {
	s := newStack(&fakeBackend{}, nil)
	sessions := application.NewSessionService(s.machine, infrastructure.NewMemorySessionStore(time.Minute), 60, nil)
	ctx := context.Background()

	a, err := sessions.Chat(ctx, "a", "schedule a meeting")
	require.NoError(t, err)
	b, err := sessions.Chat(ctx, "b", "30")
	require.NoError(t, err)

	assert.Equal(t, domain.StageDuration, a.Reply.Stage)
	assert.Equal(t, domain.StageStart, b.Reply.Stage)
}

func TestSessionService_ExitDeletesSession(t *testing.T) {
	s := newStack(&fakeBackend{}, nil)
	store := infrastructure.NewMemorySessionStore(time.Minute)
	sessions := application.NewSessionService(s.machine, store, 60, nil)
	ctx := context.Background()

	_, err := sessions.Chat(ctx, "a", "schedule a meeting")
	require.NoError(t, err)

	result, err := sessions.Chat(ctx, "a", "exit")
	require.NoError(t, err)
	assert.True(t, result.Ended)
	assert.Equal(t, "Goodbye!", result.Reply.Text)

	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_StoreFailure(t *testing.T) {
	s := newStack(&fakeBackend{}, nil)
	broken := errors.New("redis down")
	sessions := application.NewSessionService(s.machine, failingStore{err: broken}, 60, nil)

	_, err := sessions.Chat(context.Background(), "a", "schedule a meeting")

	assert.ErrorIs(t, err, broken)
}
