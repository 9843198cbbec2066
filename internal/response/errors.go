package response

import (
	"fmt"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrInvalidCategory  ErrCode = "INVALID_CATEGORY"
	ErrInvalidFlow      ErrCode = "INVALID_FLOW"
	ErrInvalidPage      ErrCode = "INVALID_PAGE"
	ErrInvalidChoice    ErrCode = "INVALID_CHOICE"
	ErrInvalidDirection ErrCode = "INVALID_DIRECTION"
	ErrInvalidPosition  ErrCode = "INVALID_POSITION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrNoQuestions     ErrCode = "NO_QUESTIONS"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrNotInProgress   ErrCode = "SESSION_NOT_IN_PROGRESS"
	ErrNotStarted      ErrCode = "SESSION_NOT_STARTED"
	ErrAnswerLocked    ErrCode = "ANSWER_LOCKED"

	// ─── Contact ───────────────────────────────────────────────────────
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code in the
// requested language.
func GetMessage(code ErrCode, lang model.Language) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return lang.Pick("Authentication token is required.", "प्रमाणीकरण टोकन आवश्यक छ।")
	case ErrTokenInvalid:
		return lang.Pick("Authentication token is invalid.", "प्रमाणीकरण टोकन अमान्य छ।")
	case ErrTokenExpired:
		return lang.Pick("Authentication token has expired.", "प्रमाणीकरण टोकनको म्याद सकिएको छ।")

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return lang.Pick("You do not have access to this resource.", "तपाईंलाई यो स्रोतमा पहुँच छैन।")

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return lang.Pick("Validation failed. Please check your input.", "प्रमाणीकरण असफल भयो। कृपया आफ्नो विवरण जाँच गर्नुहोस्।")
	case ErrInvalidID:
		return lang.Pick("Invalid ID format.", "आईडीको ढाँचा अमान्य छ।")
	case ErrInvalidPayload:
		return lang.Pick("Invalid request payload.", "अनुरोधको विवरण अमान्य छ।")
	case ErrInvalidCategory:
		return lang.Pick("Unknown question category.", "अज्ञात प्रश्न वर्ग।")
	case ErrInvalidFlow:
		return lang.Pick("Unknown exam type.", "अज्ञात परीक्षा प्रकार।")
	case ErrInvalidPage:
		return lang.Pick("That page does not exist.", "त्यो पृष्ठ अवस्थित छैन।")
	case ErrInvalidChoice:
		return lang.Pick("That option does not exist for this question.", "यस प्रश्नमा त्यो विकल्प छैन।")
	case ErrInvalidDirection:
		return lang.Pick("Direction must be next or previous.", "दिशा अर्को वा अघिल्लो हुनुपर्छ।")
	case ErrInvalidPosition:
		return lang.Pick("Question number is out of range.", "प्रश्न नम्बर दायराभन्दा बाहिर छ।")

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return lang.Pick("Resource not found.", "स्रोत फेला परेन।")

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrNoQuestions:
		return lang.Pick("No questions are available for this category yet.", "यस वर्गका लागि अहिलेसम्म कुनै प्रश्न उपलब्ध छैन।")
	case ErrSessionNotFound:
		return lang.Pick("Exam session not found or expired.", "परीक्षा सत्र फेला परेन वा समाप्त भयो।")
	case ErrNotInProgress:
		return lang.Pick("This exam is not in progress.", "यो परीक्षा चलिरहेको छैन।")
	case ErrNotStarted:
		return lang.Pick("This exam was never started.", "यो परीक्षा सुरु नै भएको छैन।")
	case ErrAnswerLocked:
		return lang.Pick("You have already answered this question.", "तपाईंले यो प्रश्नको उत्तर दिइसक्नुभएको छ।")

	// ─── Contact ───────────────────────────────────────────────────────
	case ErrServiceUnavailable:
		return lang.Pick("This service is temporarily unavailable.", "यो सेवा अस्थायी रूपमा उपलब्ध छैन।")

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return lang.Pick("Too many requests. Please try again later.", "धेरै अनुरोधहरू भए। कृपया पछि फेरि प्रयास गर्नुहोस्।")

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return lang.Pick("An internal server error occurred.", "सर्भरमा आन्तरिक त्रुटि भयो।")
	default:
		return lang.Pick("An unexpected error occurred.", "अप्रत्याशित त्रुटि भयो।")
	}
}

// WarnCode identifies a non-fatal condition reported alongside data.
type WarnCode string

const (
	WarnShortPool WarnCode = "SHORT_POOL"
)

// Warning is a localized non-fatal notice.
type Warning struct {
	Code    WarnCode `json:"code"`
	Message string   `json:"message"`
}

// ShortPoolWarning tells the candidate fewer questions were drawn than asked.
func ShortPoolWarning(lang model.Language, drawn, requested int) *Warning {
	return &Warning{
		Code: WarnShortPool,
		Message: lang.Pick(
			fmt.Sprintf("Only %d of %d questions are available in this category.", drawn, requested),
			fmt.Sprintf("यस वर्गमा %d मध्ये %d प्रश्न मात्र उपलब्ध छन्।", requested, drawn),
		),
	}
}
