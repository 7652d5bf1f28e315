package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
	"github.com/noah-isme/trainer-availability-api/pkg/response"
)

type availabilityService interface {
	CreateAvailability(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilityRecord, error)
	DeleteAvailability(ctx context.Context, id, ownerID string) error
	ListAvailabilities(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) (*dto.AvailabilityListResponse, error)
}

// AvailabilityHandler exposes /availabilities endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Create godoc
// @Summary Register an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Availability payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availabilities [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	ownerID, err := resolveOwner(claimsFromContext(c), req.OwnerID, models.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.OwnerID = ownerID

	record, err := h.service.CreateAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Delete godoc
// @Summary Delete an availability record
// @Tags Availability
// @Param id path string true "Availability ID"
// @Param owner_id query string false "Owner (admin only)"
// @Success 204
// @Router /availabilities/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	ownerID, err := resolveOwner(claimsFromContext(c), c.Query("owner_id"), models.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteAvailability(c.Request.Context(), id, ownerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List expanded availability occurrences
// @Tags Availability
// @Produce json
// @Param owner_id query string false "Owner ID (admins and coordinators)"
// @Param start query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availabilities [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var query dto.ListAvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	ownerID, err := resolveOwner(claimsFromContext(c), query.OwnerID, models.RoleAdmin, models.RoleCoordinator)
	if err != nil {
		response.Error(c, err)
		return
	}
	start, err := parseTimeParam(query.Start, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseTimeParam(query.End, "end")
	if err != nil {
		response.Error(c, err)
		return
	}

	listed, err := h.service.ListAvailabilities(c.Request.Context(), ownerID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listed, map[string]interface{}{"total": len(listed.Occurrences)})
}
