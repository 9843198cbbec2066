package service

import (
	"errors"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
)

// ErrPageNotFound is returned for a practice page past the last one.
var ErrPageNotFound = errors.New("practice page not found")

// PracticePage is one fixed page of practice questions, answers withheld.
type PracticePage struct {
	Category   model.Category               `json:"category"`
	Page       int                          `json:"page"`
	TotalPages int                          `json:"total_pages"`
	TotalItems int                          `json:"total_items"`
	Questions  []model.QuestionForCandidate `json:"questions"`
}

// QuestionService exposes the read-only question pool.
type QuestionService struct {
	repo    *repository.QuestionRepository
	perPage int
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(repo *repository.QuestionRepository, perPage int) *QuestionService {
	if perPage <= 0 {
		perPage = 20
	}
	return &QuestionService{repo: repo, perPage: perPage}
}

// Categories returns question counts per category.
func (s *QuestionService) Categories() []model.CategorySummary {
	return s.repo.Categories()
}

// PerPage is the practice page size.
func (s *QuestionService) PerPage() int {
	return s.perPage
}

// PracticePage returns one page of the practice pool for category.
func (s *QuestionService) PracticePage(category model.Category, page int) (*PracticePage, error) {
	if !category.IsSelectable() {
		return nil, ErrUnknownCategory
	}
	if page < 1 {
		return nil, ErrPageNotFound
	}

	qs, total := s.repo.Page(category, page, s.perPage)
	if total == 0 {
		return nil, ErrNoQuestions
	}
	if len(qs) == 0 {
		return nil, ErrPageNotFound
	}

	out := make([]model.QuestionForCandidate, len(qs))
	for i, q := range qs {
		out[i] = q.ForCandidate()
	}
	return &PracticePage{
		Category:   category,
		Page:       page,
		TotalPages: total,
		TotalItems: len(s.repo.PracticePool(category)),
		Questions:  out,
	}, nil
}
