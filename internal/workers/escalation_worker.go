package workers

import (
	"context"
	"time"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/services"
)

// EscalationWorker periodically sweeps for emergencies whose deadline
// passed without enough accepted volunteers.
type EscalationWorker struct {
	emergencyService services.EmergencyService
}

func NewEscalationWorker(emergencyService services.EmergencyService) *EscalationWorker {
	return &EscalationWorker{emergencyService: emergencyService}
}

func (w *EscalationWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *EscalationWorker) run(ctx context.Context) {
	cfg := config.GetConfig()
	interval := time.Duration(cfg.Matching.EscalationSweepIntervalSec) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("escalation worker started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			escalated, err := w.emergencyService.ProcessTimeouts()
			if err != nil {
				logger.WorkerLog("escalation", "sweep", err)
				continue
			}
			if len(escalated) > 0 {
				logger.Info("escalation sweep done", "escalated", len(escalated), "ids", escalated)
			}
		}
	}
}
