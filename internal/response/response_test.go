package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFailIsLocalized(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), LanguageMiddleware())
	r.GET("/x", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrNotFound) })

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   model.Language
	}{
		{"default", "/x", nil, model.LanguageEnglish},
		{"query", "/x?lang=np", nil, model.LanguageNepali},
		{"header", "/x", map[string]string{"X-Language": "ne"}, model.LanguageNepali},
		{"accept-language", "/x", map[string]string{"Accept-Language": "ne-NP,en;q=0.8"}, model.LanguageNepali},
		{"query wins", "/x?lang=en", map[string]string{"X-Language": "np"}, model.LanguageEnglish},
		{"unknown falls through", "/x?lang=fr", map[string]string{"Accept-Language": "ne"}, model.LanguageNepali},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error == nil || body.Error.Code != ErrNotFound {
				t.Fatalf("error = %+v", body.Error)
			}
			if body.Error.Message != GetMessage(ErrNotFound, tt.want) {
				t.Fatalf("message = %q, want %s text", body.Error.Message, tt.want)
			}
			if body.Metadata.Language != tt.want || body.Metadata.RequestID == "" {
				t.Fatalf("metadata = %+v", body.Metadata)
			}
		})
	}
}

func TestEveryCodeHasBothLanguages(t *testing.T) {
	codes := []ErrCode{
		ErrTokenRequired, ErrTokenInvalid, ErrTokenExpired, ErrForbidden, ErrValidation,
		ErrInvalidID, ErrInvalidPayload, ErrInvalidCategory, ErrInvalidFlow, ErrInvalidPage,
		ErrInvalidChoice, ErrInvalidDirection, ErrInvalidPosition, ErrNotFound, ErrNoQuestions,
		ErrSessionNotFound, ErrNotInProgress, ErrNotStarted, ErrAnswerLocked,
		ErrServiceUnavailable, ErrRateLimitExceeded, ErrInternal,
	}
	fallback := GetMessage("UNKNOWN", model.LanguageEnglish)
	for _, code := range codes {
		en := GetMessage(code, model.LanguageEnglish)
		np := GetMessage(code, model.LanguageNepali)
		if en == fallback || en == np {
			t.Errorf("%s: en=%q np=%q", code, en, np)
		}
	}
}

func TestShortPoolWarning(t *testing.T) {
	w := ShortPoolWarning(model.LanguageEnglish, 5, 25)
	if w.Code != WarnShortPool || w.Message != "Only 5 of 25 questions are available in this category." {
		t.Fatalf("warning = %+v", w)
	}
}
