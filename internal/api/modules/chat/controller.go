package chat

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/blackai-app/backend/internal/ai"
	"github.com/blackai-app/backend/internal/api/middleware"
	"github.com/blackai-app/backend/internal/stores/session"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateSession handles POST requests to start a new chat session
func CreateSession(c *gin.Context) {
	var req sdk.CreateSessionRequest
	// An absent body is fine; the title then defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	u := middleware.CurrentUser(c)
	sess, err := GetService().CreateSession(c.Request.Context(), u.ID, req.Title)
	if err != nil {
		c.JSON(errorResponse("create session", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusCreated, "Session created successfully", toSDKSession(sess)).AsGinResponse())
}

// GetSessions handles GET requests to list the caller's sessions
func GetSessions(c *gin.Context) {
	u := middleware.CurrentUser(c)

	sessions, err := GetService().ListSessions(c.Request.Context(), u.ID)
	if err != nil {
		c.JSON(errorResponse("list sessions", err).AsGinResponse())
		return
	}

	out := make([]sdk.Session, 0, len(sessions))
	for i := range sessions {
		out = append(out, *toSDKSession(&sessions[i]))
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", out).WithCount(len(out)).AsGinResponse())
}

// GetSession handles GET requests to retrieve one session with its transcript
func GetSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	u := middleware.CurrentUser(c)
	sess, err := GetService().GetSession(c.Request.Context(), sessionID, u.ID)
	if err != nil {
		c.JSON(errorResponse("get session", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", toSDKSession(sess)).AsGinResponse())
}

// DeleteSession handles DELETE requests to remove a session and its transcript
func DeleteSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	u := middleware.CurrentUser(c)
	if err := GetService().DeleteSession(c.Request.Context(), sessionID, u.ID); err != nil {
		c.JSON(errorResponse("delete session", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Session deleted", struct{}{}).AsGinResponse())
}

// PostTurn handles POST requests that submit a user turn and wait for the
// full assistant reply
func PostTurn(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req sdk.PostTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	u := middleware.CurrentUser(c)
	turn, err := GetService().SubmitTurn(c.Request.Context(), sessionID, u.ID, req)
	if err != nil {
		c.JSON(errorResponse("submit turn", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", toSDKTurn(turn)).AsGinResponse())
}

// StreamTurn handles POST requests that submit a user turn and stream the
// assistant reply incrementally as plain text. Once the first fragment has
// been written the status code is committed; later failures can only
// terminate the stream.
func StreamTurn(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req sdk.PostTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body").AsGinResponse())
		return
	}

	u := middleware.CurrentUser(c)
	sink := &ginStreamSink{c: c}

	if err := GetService().StreamTurn(c.Request.Context(), sessionID, u.ID, req, sink); err != nil {
		// StreamTurn only errors while a structured response is still possible
		c.JSON(errorResponse("stream turn", err).AsGinResponse())
	}
}

// GenerateTitle handles POST requests to derive and persist a session title
func GenerateTitle(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	title, err := GetService().GenerateTitle(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(errorResponse("generate title", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "", title).AsGinResponse())
}

// ginStreamSink adapts the gin response writer to the orchestrator's caller
// boundary, flushing every fragment as its own chunk
type ginStreamSink struct {
	c     *gin.Context
	wrote bool
}

func (s *ginStreamSink) Send(delta string) error {
	if !s.wrote {
		s.c.Header("Content-Type", "text/plain; charset=utf-8")
		s.wrote = true
	}

	if _, err := s.c.Writer.WriteString(delta); err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}

func (s *ginStreamSink) Fail(err error) {
	if !s.wrote {
		return
	}

	// Visible trailer, distinct from assistant text; the 200 is already
	// committed at this point
	_, _ = s.c.Writer.WriteString("\n[error: the response could not be completed]")
	s.c.Writer.Flush()
}

// sessionParam parses the :id route parameter
func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid session id").AsGinResponse())
		return uuid.Nil, false
	}
	return sessionID, true
}

// errorResponse maps orchestrator errors onto the response envelope. Internal
// detail is logged, not returned.
func errorResponse(op string, err error) *sdk.Payload {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return sdk.NewErrorResponse(http.StatusNotFound, "Session not found")
	case errors.Is(err, ErrNotOwner):
		return sdk.NewErrorResponse(http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, ErrInvalidRole):
		return sdk.NewErrorResponse(http.StatusBadRequest, "Invalid turn role")
	case errors.Is(err, ai.ErrUpstream):
		log.Printf("[CHAT]: Upstream failure during %s: %v", op, err)
		return sdk.NewErrorResponse(http.StatusBadGateway, "AI provider request failed")
	default:
		log.Printf("[CHAT]: Failed to %s: %v", op, err)
		return sdk.NewErrorResponse(http.StatusInternalServerError, fmt.Sprintf("Failed to %s", op))
	}
}

// Helper method to convert a stored session to its public form
func toSDKSession(sess *session.Session) *sdk.Session {
	out := &sdk.Session{
		ID:        sess.ID.String(),
		UserID:    sess.UserID.String(),
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}

	for i := range sess.Turns {
		out.Turns = append(out.Turns, *toSDKTurn(&sess.Turns[i]))
	}

	return out
}

// Helper method to convert a stored turn to its public form
func toSDKTurn(turn *session.Turn) *sdk.Turn {
	return &sdk.Turn{
		Role:      turn.Role,
		Content:   turn.Content,
		Timestamp: turn.CreatedAt,
	}
}
