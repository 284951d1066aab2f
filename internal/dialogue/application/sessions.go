package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/google/uuid"
)

// SessionStore persists conversation state between turns of remote sessions.
type SessionStore interface {
	// Load returns domain.ErrSessionNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*domain.ConversationState, error)
	Save(ctx context.Context, id string, state *domain.ConversationState) error
	Delete(ctx context.Context, id string) error
}

// ChatResult is the outcome of one remote turn.
type ChatResult struct {
	SessionID string
	Reply     Reply
	// Ended is set when the user left and the session was deleted.
	Ended bool
}

// SessionService runs the Machine for callers that cannot hold state
// themselves, such as MCP clients. Turns on the same session are serialised.
type SessionService struct {
	machine         *Machine
	store           SessionStore
	defaultDuration int
	logger          *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionService creates a new SessionService.
func NewSessionService(machine *Machine, store SessionStore, defaultDuration int, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		machine:         machine,
		store:           store,
		defaultDuration: defaultDuration,
		logger:          logger,
		locks:           make(map[string]*sync.Mutex),
	}
}

// Chat handles utterance in session id. An empty id starts a new session;
// an unknown or expired id starts over under the same id.
func (s *SessionService) Chat(ctx context.Context, id, utterance string) (ChatResult, error) {
	if id == "" {
		id = uuid.NewString()
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if IsExit(utterance) {
		if err := s.End(ctx, id); err != nil {
			return ChatResult{}, err
		}
		return ChatResult{SessionID: id, Reply: Reply{Text: msgGoodbye, Stage: domain.StageStart}, Ended: true}, nil
	}

	state, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		state = domain.NewConversationState(s.defaultDuration)
	} else if err != nil {
		return ChatResult{}, fmt.Errorf("load session: %w", err)
	}

	reply := s.machine.Handle(ctx, state, utterance)

	if err := s.store.Save(ctx, id, state); err != nil {
		return ChatResult{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.Debug("session turn", "session_id", id, "stage", state.Stage, "kind", reply.Kind.String())
	return ChatResult{SessionID: id, Reply: reply}, nil
}

// End deletes session id.
func (s *SessionService) End(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
	return nil
}

func (s *SessionService) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
