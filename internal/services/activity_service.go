package services

import (
	"time"

	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"
)

type ActivityService interface {
	// GetFeed returns the caller's own activity, newest first. Notification
	// rows live in the same stream under the notification_sent action.
	GetFeed(userID string, criteria repositories.ActivityCriteria) ([]*dto.ActivityEntryResponse, int64, error)
	GetNotifications(userID string, criteria repositories.ActivityCriteria) ([]*dto.ActivityEntryResponse, int64, error)
	GetEntityHistory(entityType, entityID string) ([]*dto.ActivityEntryResponse, error)

	// Admin reporting
	GetNotificationTimingReport(since time.Time) (*repositories.NotificationTimingStats, error)
}

type activityService struct {
	activityRepo repositories.ActivityRepository
}

func NewActivityService(activityRepo repositories.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

func (s *activityService) GetFeed(userID string, criteria repositories.ActivityCriteria) ([]*dto.ActivityEntryResponse, int64, error) {
	entries, total, err := s.activityRepo.FindUserFeed(userID, criteria)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	responses := make([]*dto.ActivityEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, dto.NewActivityEntryResponse(&entries[i]))
	}
	return responses, total, nil
}

func (s *activityService) GetNotifications(userID string, criteria repositories.ActivityCriteria) ([]*dto.ActivityEntryResponse, int64, error) {
	criteria.Action = repositories.ActionNotificationSent
	return s.GetFeed(userID, criteria)
}

func (s *activityService) GetEntityHistory(entityType, entityID string) ([]*dto.ActivityEntryResponse, error) {
	entries, err := s.activityRepo.FindEntityHistory(entityType, entityID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.ActivityEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, dto.NewActivityEntryResponse(&entries[i]))
	}
	return responses, nil
}

func (s *activityService) GetNotificationTimingReport(since time.Time) (*repositories.NotificationTimingStats, error) {
	stats, err := s.activityRepo.GetNotificationTimingStats(since)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}
