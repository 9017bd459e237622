package services

import (
	"sort"
	"time"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type MatchingService interface {
	// Core matching operations
	FindMatchingVolunteers(emergencyID string, limit int) ([]*dto.VolunteerMatch, error)
	FindEmergenciesForVolunteer(volunteerID string, radiusKm float64) ([]*dto.EmergencyMatch, error)

	// CreateAssignmentsForMatches requests the top-scored volunteers for
	// the emergency's open slots and records a notification for each.
	CreateAssignmentsForMatches(emergencyID string) (int, error)

	// Insights
	SuggestRadiusExpansion(emergencyID string) (*dto.RadiusSuggestion, error)
	GetMatchingStats() (*dto.MatchingStats, error)
}

type matchingService struct {
	db            *gorm.DB
	volunteerRepo repositories.VolunteerRepository
	emergencyRepo repositories.EmergencyRepository
	assignRepo    repositories.AssignmentRepository
	activityRepo  repositories.ActivityRepository
}

func NewMatchingService(
	db *gorm.DB,
	volunteerRepo repositories.VolunteerRepository,
	emergencyRepo repositories.EmergencyRepository,
	assignRepo repositories.AssignmentRepository,
	activityRepo repositories.ActivityRepository,
) MatchingService {
	return &matchingService{
		db:            db,
		volunteerRepo: volunteerRepo,
		emergencyRepo: emergencyRepo,
		assignRepo:    assignRepo,
		activityRepo:  activityRepo,
	}
}

// -------------------------------
// Core matching operations
// -------------------------------

func (s *matchingService) FindMatchingVolunteers(emergencyID string, limit int) ([]*dto.VolunteerMatch, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	return s.findVolunteersFor(emergency, limit)
}

// findVolunteersFor ranks candidates for an already-loaded emergency by
// descending score; the closer volunteer wins a score tie.
func (s *matchingService) findVolunteersFor(emergency *models.EmergencyRequest, limit int) ([]*dto.VolunteerMatch, error) {
	box := geo.BoxAround(emergency.Latitude, emergency.Longitude, emergency.SearchRadiusKm)

	var requiredSkillIDs []string
	for _, rs := range emergency.RequiredSkills {
		requiredSkillIDs = append(requiredSkillIDs, rs.SkillID)
	}

	candidates, err := s.volunteerRepo.FindCandidatesInBox(box, requiredSkillIDs)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	matches := make([]*dto.VolunteerMatch, 0, len(candidates))
	for i := range candidates {
		v := &candidates[i]
		if !v.HasCoordinates() {
			continue
		}

		// The box is a superset of the disc, re-check the exact distance
		distance := geo.Distance(emergency.Latitude, emergency.Longitude, *v.Latitude, *v.Longitude)
		if distance > emergency.SearchRadiusKm {
			continue
		}

		// Skip volunteers already tied to this emergency in any state
		exists, err := s.assignRepo.Exists(emergency.ID, v.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if exists {
			continue
		}

		skills := matchSkills(emergency.RequiredSkills, v.VerifiedSkillIDs())
		match := &dto.VolunteerMatch{
			VolunteerID: v.ID,
			UserID:      v.UserID,
			DistanceKm:  distance,
			Score:       scoreVolunteer(distance, emergency.SearchRadiusKm, emergency.Priority, skills),
			SkillMatch:  skills,
		}
		if v.User != nil {
			match.Name = v.User.FullName()
		}
		matches = append(matches, match)
	}

	rankVolunteerMatches(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// rankVolunteerMatches orders by descending score; on a score tie the
// closer volunteer wins.
func rankVolunteerMatches(matches []*dto.VolunteerMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
}

func (s *matchingService) FindEmergenciesForVolunteer(volunteerID string, radiusKm float64) ([]*dto.EmergencyMatch, error) {
	volunteer, err := s.volunteerRepo.FindByID(volunteerID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if !volunteer.HasCoordinates() {
		// No coordinates means no geo matching, not an error
		return []*dto.EmergencyMatch{}, nil
	}

	cfg := config.GetConfig()
	if radiusKm <= 0 {
		radiusKm = cfg.Matching.DefaultSearchRadiusKm
	}
	if radiusKm > cfg.Matching.MaxSearchRadiusKm {
		radiusKm = cfg.Matching.MaxSearchRadiusKm
	}

	box := geo.BoxAround(*volunteer.Latitude, *volunteer.Longitude, radiusKm)
	emergencies, err := s.emergencyRepo.FindOpenInBox(box)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	verified := volunteer.VerifiedSkillIDs()
	matches := make([]*dto.EmergencyMatch, 0, len(emergencies))
	for i := range emergencies {
		e := &emergencies[i]

		distance := geo.Distance(*volunteer.Latitude, *volunteer.Longitude, e.Latitude, e.Longitude)
		if distance > radiusKm {
			continue
		}

		skills := matchSkills(e.RequiredSkills, verified)
		score, eligible := scoreEmergencyForVolunteer(distance, radiusKm, e.Priority, skills)
		if !eligible {
			continue
		}

		matches = append(matches, &dto.EmergencyMatch{
			EmergencyID: e.ID,
			Title:       e.Title,
			Priority:    e.Priority,
			DistanceKm:  distance,
			Score:       score,
			SkillMatch:  skills,
		})
	}

	rankEmergencyMatches(matches)
	return matches, nil
}

func rankEmergencyMatches(matches []*dto.EmergencyMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
}

func (s *matchingService) CreateAssignmentsForMatches(emergencyID string) (int, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return 0, apperrors.ErrNotFound(err)
	}
	if emergency.Status != models.EmergencyStatusOpen && emergency.Status != models.EmergencyStatusAssigned {
		return 0, apperrors.ErrEmergencyNotOpen
	}

	accepted, err := s.assignRepo.CountByEmergencyAndStatus(emergencyID, models.AssignmentStatusAccepted)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	needed := emergency.VolunteersNeeded(int(accepted))
	if needed == 0 {
		return 0, nil
	}

	matches, err := s.findVolunteersFor(emergency, needed)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, m := range matches {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			assignRepo := s.assignRepo.WithTx(tx)
			activityRepo := s.activityRepo.WithTx(tx)

			assignment := &models.Assignment{
				EmergencyID: emergency.ID,
				VolunteerID: m.VolunteerID,
				Status:      models.AssignmentStatusRequested,
				AssignedAt:  time.Now(),
			}
			if err := assignRepo.Create(assignment); err != nil {
				return err
			}

			if err := activityRepo.LogAction(nil, repositories.ActionAssignmentCreated, "assignment", &assignment.ID, map[string]interface{}{
				"emergency_id": emergency.ID,
				"volunteer_id": m.VolunteerID,
				"score":        m.Score,
				"distance_km":  m.DistanceKm,
			}, nil); err != nil {
				return err
			}

			return activityRepo.LogNotification(m.UserID, repositories.NotificationTypeAssignmentRequest,
				"New assignment request",
				"You have been matched to the emergency: "+emergency.Title,
				map[string]interface{}{
					"emergency_id":  emergency.ID,
					"assignment_id": assignment.ID,
					"priority":      emergency.Priority,
				})
		})
		if err != nil {
			// A duplicate here means a concurrent matcher won the race,
			// skip the volunteer and keep going
			logger.Warn("failed to create assignment for match",
				"emergency_id", emergency.ID,
				"volunteer_id", m.VolunteerID,
				"error", err)
			continue
		}
		created++
	}
	return created, nil
}

// -------------------------------
// Insights
// -------------------------------

func (s *matchingService) SuggestRadiusExpansion(emergencyID string) (*dto.RadiusSuggestion, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	accepted, err := s.assignRepo.CountByEmergencyAndStatus(emergencyID, models.AssignmentStatusAccepted)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	needed := emergency.VolunteersNeeded(int(accepted))

	cfg := config.GetConfig()
	suggestion := &dto.RadiusSuggestion{
		CurrentRadiusKm:   emergency.SearchRadiusKm,
		SuggestedRadiusKm: emergency.SearchRadiusKm,
		CandidatesNeeded:  needed,
	}

	trial := *emergency
	for {
		matches, err := s.findVolunteersFor(&trial, 0)
		if err != nil {
			return nil, err
		}
		suggestion.CandidatesFound = len(matches)
		suggestion.SuggestedRadiusKm = trial.SearchRadiusKm

		if len(matches) >= needed || trial.SearchRadiusKm >= cfg.Matching.MaxSearchRadiusKm {
			return suggestion, nil
		}
		trial.SearchRadiusKm = geo.ExpandRadius(trial.SearchRadiusKm, cfg.Matching.MaxSearchRadiusKm)
	}
}

func (s *matchingService) GetMatchingStats() (*dto.MatchingStats, error) {
	stats := &dto.MatchingStats{}

	var err error
	if stats.MatchableVolunteers, err = s.volunteerRepo.CountMatchable(); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.OpenEmergencies, err = s.emergencyRepo.CountByStatus(models.EmergencyStatusOpen); err != nil {
		return nil, apperrors.InternalError(err)
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	if stats.AssignmentsToday, err = s.activityRepo.CountSince(repositories.ActionAssignmentCreated, midnight); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.EscalationsToday, err = s.activityRepo.CountSince(repositories.ActionAutomaticEscalation, midnight); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}
