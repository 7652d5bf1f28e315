package dto

import "time"

// PurgeResponse reports a maintenance purge run.
type PurgeResponse struct {
	Horizon time.Time `json:"horizon"`
	Purged  int64     `json:"purged"`
}

// MaintenanceStatus reports whether cron purges are enabled and the last result.
type MaintenanceStatus struct {
	Scheduled bool           `json:"scheduled"`
	LastRun   *PurgeResponse `json:"last_run,omitempty"`
}
