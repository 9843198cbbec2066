package model

import "strings"

// Language is a UI language supported by the site.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageNepali  Language = "np"
)

// ParseLanguage maps user input ("np", "ne", "ne-NP", "en-US", ...) to a
// supported language. ok is false when nothing matched.
func ParseLanguage(raw string) (lang Language, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch {
	case raw == "":
		return LanguageEnglish, false
	case raw == "np" || raw == "ne" || strings.HasPrefix(raw, "ne-") || strings.HasPrefix(raw, "ne_"):
		return LanguageNepali, true
	case raw == "en" || strings.HasPrefix(raw, "en-") || strings.HasPrefix(raw, "en_"):
		return LanguageEnglish, true
	default:
		return LanguageEnglish, false
	}
}

// Pick returns en or np depending on the language.
func (l Language) Pick(en, np string) string {
	if l == LanguageNepali {
		return np
	}
	return en
}
