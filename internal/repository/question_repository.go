package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nepallicenseprep/likhit-backend/internal/data"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrMalformedQuestion is returned when a source record cannot be normalized.
var ErrMalformedQuestion = errors.New("malformed question")

// BankShape identifies how a question bank stores its correct answers.
type BankShape int

const (
	// ShapeTextAnswer banks carry the correct answer as the text of a choice.
	ShapeTextAnswer BankShape = iota
	// ShapeIndexed banks carry the correct answer as a choice index.
	ShapeIndexed
)

// QuestionBank is one raw question source.
type QuestionBank struct {
	Name  string
	Shape BankShape
	Raw   []byte
}

// EmbeddedBanks returns the banks compiled into the binary.
func EmbeddedBanks() []QuestionBank {
	return []QuestionBank{
		{Name: "ak.json", Shape: ShapeTextAnswer, Raw: data.TextAnswerBank},
		{Name: "trafficqn.json", Shape: ShapeTextAnswer, Raw: data.TrafficBank},
		{Name: "indexed.json", Shape: ShapeIndexed, Raw: data.IndexedBank},
	}
}

// QuestionRepository is the immutable, pre-loaded question pool.
type QuestionRepository struct {
	questions []model.Question
}

// LoadQuestions parses and normalizes every bank, in order. Any malformed
// record or duplicate id fails the whole load.
func LoadQuestions(banks ...QuestionBank) (*QuestionRepository, error) {
	var all []model.Question
	seen := make(map[string]string)

	for _, bank := range banks {
		var qs []model.Question
		var err error
		switch bank.Shape {
		case ShapeTextAnswer:
			qs, err = parseTextAnswerBank(bank.Raw)
		case ShapeIndexed:
			qs, err = parseIndexedBank(bank.Raw)
		default:
			err = fmt.Errorf("unknown bank shape %d", bank.Shape)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", bank.Name, err)
		}

		for _, q := range qs {
			if prev, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("load %s: %w: id %q already defined in %s", bank.Name, ErrMalformedQuestion, q.ID, prev)
			}
			seen[q.ID] = bank.Name
		}
		all = append(all, qs...)
	}

	return &QuestionRepository{questions: all}, nil
}

func parseTextAnswerBank(raw []byte) ([]model.Question, error) {
	var bank model.TextAnswerBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]model.Question, 0, len(bank.Questions))
	for i, src := range bank.Questions {
		q, err := NormalizeTextAnswer(src)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func parseIndexedBank(raw []byte) ([]model.Question, error) {
	var bank model.IndexedBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]model.Question, 0, len(bank.Questions))
	for i, src := range bank.Questions {
		q, err := NormalizeIndexed(src)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// NormalizeTextAnswer converts a text-answer record. The answer text must
// match exactly one choice.
func NormalizeTextAnswer(src model.TextAnswerQuestion) (model.Question, error) {
	q := model.Question{
		ID:       src.N,
		Number:   src.N,
		Category: model.Category(src.Category),
		Text:     src.Qn,
		ImageURL: src.ImageURL,
		Choices:  slices.Clone(src.A4),
	}
	if err := checkCommon(q); err != nil {
		return model.Question{}, err
	}

	q.CorrectIndex = -1
	for i, c := range q.Choices {
		if c != src.An {
			continue
		}
		if q.CorrectIndex >= 0 {
			return model.Question{}, fmt.Errorf("%w: %q: answer %q matches several choices", ErrMalformedQuestion, q.ID, src.An)
		}
		q.CorrectIndex = i
	}
	if q.CorrectIndex < 0 {
		return model.Question{}, fmt.Errorf("%w: %q: answer %q matches no choice", ErrMalformedQuestion, q.ID, src.An)
	}
	return q, nil
}

// NormalizeIndexed converts an index-answer record.
func NormalizeIndexed(src model.IndexedQuestion) (model.Question, error) {
	q := model.Question{
		ID:           src.ID,
		Number:       src.ID,
		Category:     model.Category(src.Category),
		Text:         src.Text,
		ImageURL:     src.ImageURL,
		Choices:      slices.Clone(src.Options),
		CorrectIndex: src.CorrectOptionIndex,
	}
	if err := checkCommon(q); err != nil {
		return model.Question{}, err
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return model.Question{}, fmt.Errorf("%w: %q: correct index %d out of range", ErrMalformedQuestion, q.ID, q.CorrectIndex)
	}
	return q, nil
}

func checkCommon(q model.Question) error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformedQuestion)
	case !q.Category.IsStored():
		return fmt.Errorf("%w: %q: unknown category %q", ErrMalformedQuestion, q.ID, q.Category)
	case q.Text == "" && q.ImageURL == "":
		return fmt.Errorf("%w: %q: neither text nor image", ErrMalformedQuestion, q.ID)
	case len(q.Choices) == 0:
		return fmt.Errorf("%w: %q: no choices", ErrMalformedQuestion, q.ID)
	}
	return nil
}

// LoadAll returns a copy of the full question set.
func (r *QuestionRepository) LoadAll() []model.Question {
	return slices.Clone(r.questions)
}

// FilterByCategory returns every question of the category in load order.
// Mixed returns the full set; an unknown category returns nil.
func (r *QuestionRepository) FilterByCategory(category model.Category) []model.Question {
	if category == model.CategoryMixed {
		return r.LoadAll()
	}
	if !category.IsStored() {
		return nil
	}
	var out []model.Question
	for _, q := range r.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

// PracticePool is the practice order for a category: its own questions
// followed by every traffic-sign question.
func (r *QuestionRepository) PracticePool(category model.Category) []model.Question {
	if category == model.CategoryTraffic || category == model.CategoryMixed {
		return r.FilterByCategory(category)
	}
	own := r.FilterByCategory(category)
	if own == nil {
		return nil
	}
	return append(own, r.FilterByCategory(model.CategoryTraffic)...)
}

// Page returns the 1-based practice page and the total page count. A page
// past the end yields an empty slice with the real total.
func (r *QuestionRepository) Page(category model.Category, page, perPage int) ([]model.Question, int) {
	if perPage <= 0 || page <= 0 {
		return nil, 0
	}
	pool := r.PracticePool(category)
	total := (len(pool) + perPage - 1) / perPage
	if page > total {
		return nil, total
	}
	start := (page - 1) * perPage
	end := min(start+perPage, len(pool))
	return pool[start:end], total
}

// Categories counts questions per stored category, plus Mixed.
func (r *QuestionRepository) Categories() []model.CategorySummary {
	counts := make(map[model.Category]int)
	for _, q := range r.questions {
		counts[q.Category]++
	}

	out := make([]model.CategorySummary, 0, len(model.StoredCategories)+1)
	for _, c := range model.StoredCategories {
		out = append(out, model.CategorySummary{Category: c, Count: counts[c]})
	}
	out = append(out, model.CategorySummary{Category: model.CategoryMixed, Count: len(r.questions)})
	return out
}

// Get returns the question with id.
func (r *QuestionRepository) Get(id string) (model.Question, bool) {
	for _, q := range r.questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.Question{}, false
}
