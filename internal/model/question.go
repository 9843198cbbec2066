package model

// Category is a coarse grouping of questions (vehicle class or topic).
type Category string

const (
	CategoryA       Category = "A"
	CategoryB       Category = "B"
	CategoryK       Category = "K"
	CategoryTraffic Category = "Traffic"

	// CategoryMixed is a sampling-only pseudo-category covering every question.
	CategoryMixed Category = "Mixed"
)

// StoredCategories lists the categories a question may carry.
var StoredCategories = []Category{CategoryA, CategoryB, CategoryK, CategoryTraffic}

// IsStored reports whether c can be assigned to a question.
func (c Category) IsStored() bool {
	for _, s := range StoredCategories {
		if c == s {
			return true
		}
	}
	return false
}

// IsSelectable reports whether c can be used to start a session.
func (c Category) IsSelectable() bool {
	return c == CategoryMixed || c.IsStored()
}

// Question is a single normalized exam question. The correct answer is always
// held as an index into Choices, whatever shape the source record used.
type Question struct {
	ID           string   `json:"id"`
	Number       string   `json:"number"`
	Category     Category `json:"category"`
	Text         string   `json:"text,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
}

// QuestionForCandidate is a question without its correct answer.
type QuestionForCandidate struct {
	ID       string   `json:"id"`
	Number   string   `json:"number"`
	Category Category `json:"category"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Choices  []string `json:"choices"`
}

// ForCandidate strips the answer key.
func (q Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:       q.ID,
		Number:   q.Number,
		Category: q.Category,
		Text:     q.Text,
		ImageURL: q.ImageURL,
		Choices:  q.Choices,
	}
}

// TextAnswerQuestion is the source shape carrying the correct answer as text.
// `an` must equal exactly one entry of `a4`.
type TextAnswerQuestion struct {
	N        string   `json:"n"`
	Category string   `json:"category"`
	Qn       string   `json:"qn,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	A4       []string `json:"a4"`
	An       string   `json:"an"`
}

// TextAnswerBank wraps the text-answer records as they appear on disk.
type TextAnswerBank struct {
	Questions []TextAnswerQuestion `json:"questions"`
}

// IndexedQuestion is the source shape carrying the correct answer as an index.
type IndexedQuestion struct {
	ID                 string   `json:"id"`
	Category           string   `json:"category"`
	Text               string   `json:"text,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

// IndexedBank wraps the index-answer records as they appear on disk.
type IndexedBank struct {
	Questions []IndexedQuestion `json:"questions"`
}

// CategorySummary is the count of questions available per category.
type CategorySummary struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
