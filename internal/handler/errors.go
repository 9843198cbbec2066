package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
)

// sessionErrorStatus maps exam and session registry errors to an HTTP status
// and error code. Shared by the REST and WebSocket session handlers.
func sessionErrorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, exam.ErrAbandoned):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrSessionForbidden):
		return http.StatusForbidden, response.ErrForbidden
	case errors.Is(err, service.ErrUnknownFlow):
		return http.StatusBadRequest, response.ErrInvalidFlow
	case errors.Is(err, exam.ErrUnknownCategory):
		return http.StatusBadRequest, response.ErrInvalidCategory
	case errors.Is(err, exam.ErrNoQuestions):
		return http.StatusUnprocessableEntity, response.ErrNoQuestions
	case errors.Is(err, exam.ErrPageOutOfRange):
		return http.StatusNotFound, response.ErrInvalidPage
	case errors.Is(err, exam.ErrInvalidQuestionCount),
		errors.Is(err, exam.ErrInvalidTimeLimit),
		errors.Is(err, exam.ErrInvalidPassMark):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, exam.ErrInvalidChoice):
		return http.StatusBadRequest, response.ErrInvalidChoice
	case errors.Is(err, exam.ErrInvalidPosition):
		return http.StatusBadRequest, response.ErrInvalidPosition
	case errors.Is(err, exam.ErrInvalidDirection):
		return http.StatusBadRequest, response.ErrInvalidDirection
	case errors.Is(err, exam.ErrAnswerLocked):
		return http.StatusConflict, response.ErrAnswerLocked
	case errors.Is(err, exam.ErrNotInProgress):
		return http.StatusConflict, response.ErrNotInProgress
	case errors.Is(err, exam.ErrNotStarted):
		return http.StatusConflict, response.ErrNotStarted
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

func failSession(c *gin.Context, err error) {
	status, code := sessionErrorStatus(err)
	response.Fail(c, status, code)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
