package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
	"github.com/nepallicenseprep/likhit-backend/internal/validator"
)

// CatalogHandler serves the static site content: traffic signs, ad slots,
// statistics and the contact form.
type CatalogHandler struct {
	signService    *service.TrafficSignService
	adService      *service.AdService
	statsService   *service.StatsService
	contactService *service.ContactService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(
	signService *service.TrafficSignService,
	adService *service.AdService,
	statsService *service.StatsService,
	contactService *service.ContactService,
) *CatalogHandler {
	return &CatalogHandler{
		signService:    signService,
		adService:      adService,
		statsService:   statsService,
		contactService: contactService,
	}
}

// ListTrafficSigns godoc
// GET /api/v1/traffic-signs?category=
// Lists traffic signs, optionally filtered by category.
func (h *CatalogHandler) ListTrafficSigns(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"signs":      h.signService.List(c.Query("category")),
		"categories": h.signService.Categories(),
	})
}

// GetTrafficSign godoc
// GET /api/v1/traffic-signs/:id
func (h *CatalogHandler) GetTrafficSign(c *gin.Context) {
	sign, err := h.signService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTrafficSignNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sign": sign})
}

// GetAdSlots godoc
// GET /api/v1/ads/:page
// Returns the ad slots that should render on a page. Empty outside
// production.
func (h *CatalogHandler) GetAdSlots(c *gin.Context) {
	slots, err := h.adService.Slots(c.Param("page"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

// GetStats godoc
// GET /api/v1/stats?flow=
// Returns attempt counts, average scores and pass rates per category.
func (h *CatalogHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Get(c.Request.Context(), model.Flow(c.Query("flow")))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownFlow):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidFlow)
		case errors.Is(err, service.ErrStatsUnavailable):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if stats == nil {
		stats = []model.CategoryStats{}
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// SubmitContact godoc
// POST /api/v1/contact
// Stores a contact form message.
func (h *CatalogHandler) SubmitContact(c *gin.Context) {
	var req model.ContactRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	msg, err := h.contactService.Submit(c.Request.Context(), req, response.Lang(c))
	if err != nil {
		if errors.Is(err, service.ErrContactUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": msg.ID, "created_at": msg.CreatedAt})
}
