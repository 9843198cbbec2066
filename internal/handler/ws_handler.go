package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/middleware"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
	ws "github.com/nepallicenseprep/likhit-backend/internal/websocket"
)

// stateInterval is how often the countdown is pushed while a session runs.
const stateInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live session over WebSocket.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream?token=
// Accepts session actions and pushes state every second until the session
// finishes, then sends the result and closes.
func (h *WSHandler) SessionStream(c *gin.Context) {
	owner := middleware.ClientID(c)
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	// Reject unknown sessions before the upgrade so the client gets a plain
	// HTTP error.
	if _, err := h.sessionService.Get(owner, id); err != nil {
		failSession(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	results, unsubscribe, err := h.sessionService.Subscribe(owner, id)
	if err != nil {
		h.writeSessionError(conn, response.Lang(c), err)
		return
	}
	defer unsubscribe()

	st := &stream{
		h:     h,
		conn:  conn,
		owner: owner,
		id:    id,
		lang:  response.Lang(c),
		log:   h.log.With().Str("session_id", id.String()).Str("client_id", owner).Logger(),
	}
	st.log.Info().Msg("Client connected")
	st.run(c.Request.Context(), results)
}

func (h *WSHandler) writeSessionError(conn *websocket.Conn, lang model.Language, err error) {
	_, code := sessionErrorStatus(err)
	ws.WriteError(conn, string(code), response.GetMessage(code, lang))
}

// stream owns the write side of one connection. Only run writes to conn;
// the reader goroutine hands messages over a channel.
type stream struct {
	h     *WSHandler
	conn  *websocket.Conn
	owner string
	id    uuid.UUID
	lang  model.Language
	log   zerolog.Logger
}

func (st *stream) run(ctx context.Context, results <-chan model.SessionResult) {
	msgs := make(chan ws.RequestEnvelope)
	done := make(chan struct{})
	defer close(done)
	readErr := make(chan error, 1)

	go func() {
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(st.conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- msg:
			case <-done:
				return
			}
		}
	}()

	if !st.pushState() {
		return
	}

	ticker := time.NewTicker(stateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				st.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				st.log.Debug().Msg("Connection closed")
			}
			return

		case r, ok := <-results:
			if !ok {
				// Discarded or swept.
				st.h.writeSessionError(st.conn, st.lang, service.ErrSessionNotFound)
				return
			}
			if err := ws.WriteTyped(st.conn, ws.FinishedResponse{Event: ws.EventFinished, Result: r}); err != nil {
				return
			}
			ws.WriteClose(st.conn, "finished")
			st.log.Info().Int("score", r.Score).Bool("timed_out", r.TimedOut).Msg("Session finished")
			return

		case <-ticker.C:
			if !st.pushState() {
				return
			}

		case msg := <-msgs:
			if !st.handle(ctx, msg) {
				return
			}
		}
	}
}

// pushState writes the current snapshot. It reports false when the stream
// should end.
func (st *stream) pushState() bool {
	view, err := st.h.sessionService.Get(st.owner, st.id)
	if err != nil {
		st.h.writeSessionError(st.conn, st.lang, err)
		return false
	}
	return ws.WriteTyped(st.conn, ws.StateResponse{Event: ws.EventState, State: view}) == nil
}

func (st *stream) handle(ctx context.Context, msg ws.RequestEnvelope) bool {
	switch msg.Action {
	case ws.ActionPing:
		return ws.WriteTyped(st.conn, ws.PongResponse{Event: ws.EventPong}) == nil

	case ws.ActionAnswer:
		if msg.ChoiceIndex == nil {
			return st.fail(response.ErrInvalidChoice)
		}
		_, fb, err := st.h.sessionService.SelectAnswer(st.owner, st.id, *msg.ChoiceIndex)
		if err != nil {
			return st.failErr(err)
		}
		if fb != nil {
			if err := ws.WriteTyped(st.conn, ws.FeedbackResponse{Event: ws.EventFeedback, Feedback: fb}); err != nil {
				return false
			}
		}
		return st.pushState()

	case ws.ActionNavigate:
		if _, err := st.h.sessionService.Navigate(st.owner, st.id, msg.Direction); err != nil {
			return st.failErr(err)
		}
		return st.pushState()

	case ws.ActionJump:
		if msg.Index == nil {
			return st.fail(response.ErrInvalidPosition)
		}
		if _, err := st.h.sessionService.Jump(st.owner, st.id, *msg.Index); err != nil {
			return st.failErr(err)
		}
		return st.pushState()

	case ws.ActionFinish:
		// The result arrives through the subscription.
		if _, err := st.h.sessionService.Finish(ctx, st.owner, st.id); err != nil {
			return st.failErr(err)
		}
		return true

	default:
		st.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		return st.fail(response.ErrInvalidPayload)
	}
}

func (st *stream) fail(code response.ErrCode) bool {
	return ws.WriteError(st.conn, string(code), response.GetMessage(code, st.lang)) == nil
}

// failErr reports a domain error and keeps the stream open unless the
// session is gone.
func (st *stream) failErr(err error) bool {
	_, code := sessionErrorStatus(err)
	if !st.fail(code) {
		return false
	}
	return code != response.ErrSessionNotFound && code != response.ErrForbidden
}
