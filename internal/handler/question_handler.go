package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
)

// QuestionHandler serves the question catalogue.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListCategories godoc
// GET /api/v1/categories
// Lists every selectable category with its question count.
func (h *QuestionHandler) ListCategories(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"categories": h.questionService.Categories()})
}

// GetPracticePage godoc
// GET /api/v1/practice/:category/:page
// Returns one fixed page of practice questions without answers. Answers are
// revealed by starting a practice session for the same page.
func (h *QuestionHandler) GetPracticePage(c *gin.Context) {
	category := model.Category(c.Param("category"))
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPage)
		return
	}

	p, err := h.questionService.PracticePage(category, page)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCategory):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidCategory)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
		case errors.Is(err, service.ErrPageNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrInvalidPage)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{
		"category":  p.Category,
		"questions": p.Questions,
	}, &response.Pagination{
		Page:       p.Page,
		PerPage:    h.questionService.PerPage(),
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	})
}
