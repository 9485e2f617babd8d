package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/blackai-app/backend/internal/ai"
	"github.com/blackai-app/backend/internal/stores/session"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/google/uuid"
)

var (
	// ErrNotOwner is returned when a session exists but belongs to a
	// different user. Checked before any mutation.
	ErrNotOwner = errors.New("not authorized to access this session")
	// ErrInvalidRole is returned when a submitted turn carries an unknown role
	ErrInvalidRole = errors.New("invalid turn role")
)

// Completer produces chat completions. Satisfied by *ai.Client.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message, temperature *float32) (string, error)
	CompleteStream(ctx context.Context, messages []ai.Message, temperature *float32) (<-chan ai.Event, error)
}

// StreamSink is the caller boundary of a streaming turn. Send forwards one
// fragment and reports delivery failure (client gone); Fail delivers a
// best-effort inline failure notice once fragments have already been sent.
type StreamSink interface {
	Send(delta string) error
	Fail(err error)
}

// Service drives one user interaction per call: persist the user turn, build
// the bounded prompt, invoke the provider, and persist the assistant turn.
type Service struct {
	sessions  session.Store
	completer Completer

	systemTemplate string
	titlePrompt    string

	// one mutex per live session serializes same-session turn appends
	locks sync.Map
}

// NewService creates the turn orchestrator. Empty prompt arguments fall back
// to the built-in defaults.
func NewService(sessions session.Store, completer Completer, systemTemplate, titlePrompt string) *Service {
	if systemTemplate == "" {
		systemTemplate = defaultSystemTemplate
	}
	if titlePrompt == "" {
		titlePrompt = defaultTitlePrompt
	}

	return &Service{
		sessions:       sessions,
		completer:      completer,
		systemTemplate: systemTemplate,
		titlePrompt:    titlePrompt,
	}
}

// CreateSession starts a new session for the user
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*session.Session, error) {
	return s.sessions.CreateSession(ctx, userID, title)
}

// ListSessions returns the user's sessions, most recently updated first
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]session.Session, error) {
	return s.sessions.ListSessions(ctx, userID)
}

// GetSession returns one session with its transcript, enforcing ownership
func (s *Service) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*session.Session, error) {
	return s.authorize(ctx, sessionID, userID)
}

// DeleteSession removes a session and its transcript, enforcing ownership
func (s *Service) DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	if _, err := s.authorize(ctx, sessionID, userID); err != nil {
		return err
	}

	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	s.locks.Delete(sessionID)
	return nil
}

// SubmitTurn appends the user turn, requests a blocking completion, appends
// the assistant turn, and returns it. When the provider call fails the user
// turn stays persisted; there is no compensating delete.
func (s *Service) SubmitTurn(ctx context.Context, sessionID, userID uuid.UUID, req sdk.PostTurnRequest) (*session.Turn, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, role, err := s.beginTurn(ctx, sessionID, userID, req)
	if err != nil {
		return nil, err
	}

	userTurn, err := s.sessions.AppendTurn(ctx, sessionID, role, req.Content)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(s.systemTemplate, append(sess.Turns, *userTurn), promptOptions(req))

	text, err := s.completer.Complete(ctx, prompt, req.Temperature)
	if err != nil {
		log.Printf("[CHAT]: Completion failed for session %s: %v", sessionID, err)
		return nil, err
	}

	return s.sessions.AppendTurn(ctx, sessionID, session.RoleAssistant, text)
}

// StreamTurn appends the user turn, opens a streaming completion, and
// forwards each fragment to the sink as it arrives while accumulating the
// full text. One assistant turn is persisted when the stream ends with a
// non-empty accumulator; this covers natural completion, mid-stream provider
// failure, and client disconnect alike. An error is returned only while a
// structured response is still possible, i.e. before any fragment reached
// the sink.
func (s *Service) StreamTurn(ctx context.Context, sessionID, userID uuid.UUID, req sdk.PostTurnRequest, sink StreamSink) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, role, err := s.beginTurn(ctx, sessionID, userID, req)
	if err != nil {
		return err
	}

	userTurn, err := s.sessions.AppendTurn(ctx, sessionID, role, req.Content)
	if err != nil {
		return err
	}

	prompt := buildPrompt(s.systemTemplate, append(sess.Turns, *userTurn), promptOptions(req))

	events, err := s.completer.CompleteStream(ctx, prompt, req.Temperature)
	if err != nil {
		log.Printf("[CHAT]: Could not open stream for session %s: %v", sessionID, err)
		return err
	}

	var full strings.Builder
	for event := range events {
		if event.Err != nil {
			log.Printf("[CHAT]: Stream failed for session %s: %v", sessionID, event.Err)
			if full.Len() == 0 {
				return event.Err
			}
			sink.Fail(event.Err)
			break
		}

		full.WriteString(event.Delta)
		if err := sink.Send(event.Delta); err != nil {
			log.Printf("[CHAT]: Caller went away mid-stream for session %s: %v", sessionID, err)
			break
		}
	}

	if full.Len() == 0 {
		return nil
	}

	// The request context may already be canceled (client disconnect); the
	// accumulated text is still persisted.
	if _, err := s.sessions.AppendTurn(context.WithoutCancel(ctx), sessionID, session.RoleAssistant, full.String()); err != nil {
		log.Printf("[CHAT]: Failed to persist assistant turn for session %s: %v", sessionID, err)
	}

	return nil
}

// GenerateTitle derives a short title from the session's first user turn and
// persists it. This mutates a session attribute, not the transcript.
func (s *Service) GenerateTitle(ctx context.Context, sessionID uuid.UUID) (string, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	prompt := []ai.Message{
		{Role: session.RoleSystem, Content: s.titlePrompt},
		{Role: session.RoleUser, Content: sess.FirstUserTurn(session.DefaultTitle)},
	}

	text, err := s.completer.Complete(ctx, prompt, nil)
	if err != nil {
		log.Printf("[CHAT]: Title generation failed for session %s: %v", sessionID, err)
		return "", err
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'`))
	if title == "" {
		title = session.DefaultTitle
	}

	if err := s.sessions.SetTitle(ctx, sessionID, title); err != nil {
		return "", err
	}

	return title, nil
}

// beginTurn runs the checks shared by both turn operations: the session must
// exist, belong to the caller, and the submitted role must be valid. Nothing
// is mutated before these pass.
func (s *Service) beginTurn(ctx context.Context, sessionID, userID uuid.UUID, req sdk.PostTurnRequest) (*session.Session, string, error) {
	sess, err := s.authorize(ctx, sessionID, userID)
	if err != nil {
		return nil, "", err
	}

	role := req.Role
	if role == "" {
		role = session.RoleUser
	}
	if !session.ValidRole(role) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	return sess, role, nil
}

// authorize loads the session and enforces ownership
func (s *Service) authorize(ctx context.Context, sessionID, userID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.UserID != userID {
		return nil, ErrNotOwner
	}

	return sess, nil
}

// sessionLock returns the mutex serializing appends for one session
func (s *Service) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func promptOptions(req sdk.PostTurnRequest) PromptOptions {
	return PromptOptions{
		Language: req.Language,
		Tone:     req.Tone,
		Length:   req.Length,
	}
}
