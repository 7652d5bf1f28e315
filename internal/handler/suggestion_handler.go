package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
	"github.com/noah-isme/trainer-availability-api/pkg/response"
)

type slotSuggester interface {
	SuggestSlots(ctx context.Context, moduleID, institutionID string, durationHours float64, preferredStart time.Time) ([]models.SuggestionSlot, error)
}

// SuggestionHandler exposes the slot suggestion endpoint.
type SuggestionHandler struct {
	service  slotSuggester
	validate *validator.Validate
	now      func() time.Time
}

// NewSuggestionHandler constructs the handler.
func NewSuggestionHandler(service slotSuggester, validate *validator.Validate) *SuggestionHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SuggestionHandler{service: service, validate: validate, now: time.Now}
}

// Suggest godoc
// @Summary Suggest ranked trainer slots
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.SuggestSlotsRequest true "Suggestion request"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	var req dto.SuggestSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}
	preferred, err := parseTimeParam(req.PreferredStartDate, "preferred_start_date")
	if err != nil {
		response.Error(c, err)
		return
	}
	if preferred.IsZero() {
		preferred = h.now().UTC()
	}

	slots, err := h.service.SuggestSlots(c.Request.Context(), req.ModuleID, req.InstitutionID, req.DurationHours, preferred)
	if err != nil {
		response.Error(c, err)
		return
	}
	if slots == nil {
		slots = []models.SuggestionSlot{}
	}
	response.JSON(c, http.StatusOK, dto.SuggestSlotsResponse{Slots: slots}, map[string]interface{}{"total": len(slots)})
}
