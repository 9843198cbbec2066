package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/middleware"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
	"github.com/nepallicenseprep/likhit-backend/internal/validator"
)

// SessionHandler handles the exam session lifecycle for practice, mock and
// real exams.
type SessionHandler struct {
	sessionService *service.ExamSessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.ExamSessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// startedBody attaches the short-pool warning when fewer questions were drawn
// than requested.
func startedBody(c *gin.Context, view service.SessionView, report exam.StartReport) gin.H {
	body := gin.H{"session": view}
	if report.Short {
		body["warning"] = response.ShortPoolWarning(response.Lang(c), report.Drawn, report.Requested)
	}
	return body
}

// StartSession godoc
// POST /api/v1/sessions
// Draws questions for the chosen flow and category and starts the session.
// A pool smaller than requested still starts, with a warning.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, report, err := h.sessionService.Start(c.Request.Context(), middleware.ClientID(c), req)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusCreated, startedBody(c, view, report))
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
// Returns the current state of a session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	view, err := h.sessionService.Get(middleware.ClientID(c), id)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// SelectAnswer godoc
// PUT /api/v1/sessions/:session_id/answer
// Records a choice for the current question. Practice sessions also return
// whether the choice was correct.
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, fb, err := h.sessionService.SelectAnswer(middleware.ClientID(c), id, *req.ChoiceIndex)
	if err != nil {
		failSession(c, err)
		return
	}

	body := gin.H{"session": view}
	if fb != nil {
		body["feedback"] = fb
	}
	response.Success(c, http.StatusOK, body)
}

// Navigate godoc
// POST /api/v1/sessions/:session_id/navigate
// Moves to the next or previous question, clamped to the ends.
func (h *SessionHandler) Navigate(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Navigate(middleware.ClientID(c), id, req.Direction)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Jump godoc
// POST /api/v1/sessions/:session_id/jump
// Moves to an arbitrary question.
func (h *SessionHandler) Jump(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Jump(middleware.ClientID(c), id, *req.Index)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// FinishSession godoc
// POST /api/v1/sessions/:session_id/finish
// Scores the session. Finishing an already finished session returns the
// same result.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Finish(c.Request.Context(), middleware.ClientID(c), id)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// RestartSession godoc
// POST /api/v1/sessions/:session_id/restart
// Draws a fresh set of questions with the same flow and category.
func (h *SessionHandler) RestartSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	view, report, err := h.sessionService.Restart(c.Request.Context(), middleware.ClientID(c), id)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, startedBody(c, view, report))
}

// DiscardSession godoc
// DELETE /api/v1/sessions/:session_id
// Drops a session without recording a result.
func (h *SessionHandler) DiscardSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Discard(middleware.ClientID(c), id); err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetHistory godoc
// GET /api/v1/history?flow=&category=
// Returns the most recent results of the client for one flow and category,
// newest first.
func (h *SessionHandler) GetHistory(c *gin.Context) {
	flow := model.Flow(c.Query("flow"))
	category := model.Category(c.Query("category"))

	results, err := h.sessionService.History(c.Request.Context(), middleware.ClientID(c), flow, category)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
