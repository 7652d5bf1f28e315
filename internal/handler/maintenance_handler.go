package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
	"github.com/noah-isme/trainer-availability-api/pkg/response"
)

type purgeRunner interface {
	RunOnce(ctx context.Context) (*dto.PurgeResponse, bool, error)
	LastRun() *dto.PurgeResponse
}

// MaintenanceHandler triggers housekeeping on demand. Manual runs share the
// scheduler's overlap guard with cron runs.
type MaintenanceHandler struct {
	runner    purgeRunner
	scheduled bool
}

// NewMaintenanceHandler constructs the handler. scheduled reports whether cron
// runs are enabled.
func NewMaintenanceHandler(runner purgeRunner, scheduled bool) *MaintenanceHandler {
	return &MaintenanceHandler{runner: runner, scheduled: scheduled}
}

// Purge godoc
// @Summary Purge expired availability records
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /maintenance/purge [post]
func (h *MaintenanceHandler) Purge(c *gin.Context) {
	result, ran, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ran {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "a maintenance run is already in progress"))
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Status godoc
// @Summary Report the most recent purge
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/status [get]
func (h *MaintenanceHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.MaintenanceStatus{
		Scheduled: h.scheduled,
		LastRun:   h.runner.LastRun(),
	})
}
