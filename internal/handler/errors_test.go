package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
)

func TestSessionErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
		{exam.ErrAbandoned, http.StatusNotFound, response.ErrSessionNotFound},
		{service.ErrSessionForbidden, http.StatusForbidden, response.ErrForbidden},
		{fmt.Errorf("start session: %w", exam.ErrNoQuestions), http.StatusUnprocessableEntity, response.ErrNoQuestions},
		{fmt.Errorf("start session: %w", exam.ErrUnknownCategory), http.StatusBadRequest, response.ErrInvalidCategory},
		{exam.ErrPageOutOfRange, http.StatusNotFound, response.ErrInvalidPage},
		{exam.ErrAnswerLocked, http.StatusConflict, response.ErrAnswerLocked},
		{exam.ErrNotStarted, http.StatusConflict, response.ErrNotStarted},
		{exam.ErrInvalidQuestionCount, http.StatusBadRequest, response.ErrValidation},
		{fmt.Errorf("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		status, code := sessionErrorStatus(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("%v → %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}
