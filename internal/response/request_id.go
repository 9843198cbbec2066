package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// Gin context keys shared by middleware and the envelope builders.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyLanguage  = "language"
)

// RequestIDMiddleware generates a unique request ID for every request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

// LanguageMiddleware resolves the response language from ?lang, X-Language
// or Accept-Language, in that order, defaulting to English.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := model.LanguageEnglish
		for _, raw := range []string{c.Query("lang"), c.GetHeader("X-Language"), firstAcceptLanguage(c.GetHeader("Accept-Language"))} {
			if l, ok := model.ParseLanguage(raw); ok {
				lang = l
				break
			}
		}
		c.Set(ContextKeyLanguage, lang)
		c.Header("Content-Language", string(lang))
		c.Next()
	}
}

// Lang returns the language chosen for this request.
func Lang(c *gin.Context) model.Language {
	if v, ok := c.Get(ContextKeyLanguage); ok {
		if l, ok := v.(model.Language); ok {
			return l
		}
	}
	return model.LanguageEnglish
}

// firstAcceptLanguage returns the first tag of an Accept-Language header.
func firstAcceptLanguage(header string) string {
	for i, r := range header {
		if r == ',' || r == ';' {
			return header[:i]
		}
	}
	return header
}
