package workers

import (
	"context"
	"time"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services"
)

// MaintenanceWorker handles slow housekeeping: expiring unanswered
// assignment requests and pruning dead refresh tokens.
type MaintenanceWorker struct {
	assignmentService services.AssignmentService
	userRepo          repositories.UserRepository
}

func NewMaintenanceWorker(assignmentService services.AssignmentService, userRepo repositories.UserRepository) *MaintenanceWorker {
	return &MaintenanceWorker{
		assignmentService: assignmentService,
		userRepo:          userRepo,
	}
}

func (w *MaintenanceWorker) Start(ctx context.Context) {
	go w.expireOverdueRequests(ctx)
	go w.cleanRefreshTokens(ctx)
}

// expireOverdueRequests cancels requests that sat unanswered for two full
// escalation periods, so matching stops waiting on silent volunteers.
func (w *MaintenanceWorker) expireOverdueRequests(ctx context.Context) {
	cfg := config.GetConfig()
	timeout := 2 * time.Duration(cfg.Matching.EscalationTimeoutMinutes) * time.Minute

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance worker stopped")
			return
		case <-ticker.C:
			expired, err := w.assignmentService.ExpireOverdueRequests(time.Now().Add(-timeout))
			if err != nil {
				logger.WorkerLog("maintenance", "expire overdue requests", err)
				continue
			}
			if expired > 0 {
				logger.Info("expired overdue assignment requests", "count", expired)
			}
		}
	}
}

func (w *MaintenanceWorker) cleanRefreshTokens(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.userRepo.CleanExpiredRefreshTokens(); err != nil {
				logger.WorkerLog("maintenance", "clean refresh tokens", err)
			}
		}
	}
}
