package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// stubTxPool satisfies gorm's transaction plumbing without a database.
// gorm sees an in-flight transaction and hands the callback the same
// session, so service methods run their transactional blocks against the
// in-memory repositories below.
type stubTxPool struct{}

func (stubTxPool) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, nil }
func (stubTxPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (stubTxPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (stubTxPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (stubTxPool) Commit() error                                                    { return nil }
func (stubTxPool) Rollback() error                                                  { return nil }

func newStubDB() *gorm.DB {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		ConnPool:                 stubTxPool{},
		DisableNestedTransaction: true,
	})
	if err != nil {
		panic(err)
	}
	return db
}

// -------------------------------
// Emergency repository fake
// -------------------------------

// fakeEmergencyRepo keeps emergencies in a map and records every status
// transition as "id:from->to".
type fakeEmergencyRepo struct {
	emergencies map[string]*models.EmergencyRequest
	transitions []string
	updated     []string
}

func newFakeEmergencyRepo(emergencies ...*models.EmergencyRequest) *fakeEmergencyRepo {
	repo := &fakeEmergencyRepo{emergencies: map[string]*models.EmergencyRequest{}}
	for _, e := range emergencies {
		repo.emergencies[e.ID] = e
	}
	return repo
}

func (f *fakeEmergencyRepo) WithTx(*gorm.DB) repositories.EmergencyRepository { return f }

func (f *fakeEmergencyRepo) Create(e *models.EmergencyRequest) error {
	f.emergencies[e.ID] = e
	return nil
}

func (f *fakeEmergencyRepo) FindByID(id string) (*models.EmergencyRequest, error) {
	e, ok := f.emergencies[id]
	if !ok {
		return nil, repositories.ErrEmergencyNotFound
	}
	c := *e
	return &c, nil
}

func (f *fakeEmergencyRepo) Update(e *models.EmergencyRequest) error {
	stored, ok := f.emergencies[e.ID]
	if !ok {
		return repositories.ErrEmergencyNotFound
	}
	*stored = *e
	f.updated = append(f.updated, e.ID)
	return nil
}

func (f *fakeEmergencyRepo) UpdateStatusFrom(id string, from, to models.EmergencyStatus) error {
	e, ok := f.emergencies[id]
	if !ok || e.Status != from {
		return repositories.ErrEmergencyNotFound
	}
	e.Status = to
	f.transitions = append(f.transitions, fmt.Sprintf("%s:%s->%s", id, from, to))
	return nil
}

func (f *fakeEmergencyRepo) FindWithFilter(repositories.EmergencyFilter) ([]models.EmergencyRequest, int64, error) {
	return nil, 0, nil
}

func (f *fakeEmergencyRepo) ReplaceRequiredSkills(string, []models.EmergencyRequiredSkill) error {
	return nil
}

func (f *fakeEmergencyRepo) FindRequiredSkills(string) ([]models.EmergencyRequiredSkill, error) {
	return nil, nil
}

func (f *fakeEmergencyRepo) FindExpiredForEscalation(now time.Time, maxEscalations int) ([]models.EmergencyRequest, error) {
	var out []models.EmergencyRequest
	for _, e := range f.emergencies {
		if (e.Status == models.EmergencyStatusOpen || e.Status == models.EmergencyStatusAssigned) &&
			e.ExpiresAt.Before(now) && e.EscalationCount < maxEscalations {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEmergencyRepo) FindActiveByAuthority(authorityID string) ([]models.EmergencyRequest, error) {
	var out []models.EmergencyRequest
	for _, e := range f.emergencies {
		if e.AuthorityID == authorityID &&
			(e.Status == models.EmergencyStatusOpen || e.Status == models.EmergencyStatusAssigned) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEmergencyRepo) FindOpenInBox(geo.BoundingBox) ([]models.EmergencyRequest, error) {
	return nil, nil
}

func (f *fakeEmergencyRepo) CountByStatus(status models.EmergencyStatus) (int64, error) {
	var n int64
	for _, e := range f.emergencies {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeEmergencyRepo) GetStatistics(string) (*repositories.EmergencyStats, error) {
	return &repositories.EmergencyStats{}, nil
}

// -------------------------------
// Assignment repository fake
// -------------------------------

type fakeAssignmentRepo struct {
	assignments map[string]*models.Assignment
	emergencies *fakeEmergencyRepo

	transitions        []string
	created            []string
	cancelledRequested []string
}

func newFakeAssignmentRepo(emergencies *fakeEmergencyRepo, assignments ...*models.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{
		assignments: map[string]*models.Assignment{},
		emergencies: emergencies,
	}
	for _, a := range assignments {
		repo.assignments[a.ID] = a
	}
	return repo
}

func (f *fakeAssignmentRepo) WithTx(*gorm.DB) repositories.AssignmentRepository { return f }

func (f *fakeAssignmentRepo) Create(a *models.Assignment) error {
	for _, existing := range f.assignments {
		if existing.EmergencyID == a.EmergencyID && existing.VolunteerID == a.VolunteerID {
			return repositories.ErrAssignmentExists
		}
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("assignment-%d", len(f.assignments)+1)
	}
	c := *a
	f.assignments[a.ID] = &c
	f.created = append(f.created, a.ID)
	return nil
}

// hydrate mimics the Emergency preload of the real repository.
func (f *fakeAssignmentRepo) hydrate(a *models.Assignment) {
	if f.emergencies == nil {
		return
	}
	if e, ok := f.emergencies.emergencies[a.EmergencyID]; ok {
		c := *e
		a.Emergency = &c
	}
}

func (f *fakeAssignmentRepo) FindByID(id string) (*models.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, repositories.ErrAssignmentNotFound
	}
	c := *a
	f.hydrate(&c)
	return &c, nil
}

func (f *fakeAssignmentRepo) Exists(emergencyID, volunteerID string) (bool, error) {
	for _, a := range f.assignments {
		if a.EmergencyID == emergencyID && a.VolunteerID == volunteerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignmentRepo) FindWithFilter(repositories.AssignmentFilter) ([]models.Assignment, int64, error) {
	return nil, 0, nil
}

func (f *fakeAssignmentRepo) FindByEmergency(emergencyID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.EmergencyID == emergencyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) SaveTransition(a *models.Assignment, from models.AssignmentStatus) error {
	stored, ok := f.assignments[a.ID]
	if !ok {
		return repositories.ErrAssignmentNotFound
	}
	if stored.Status != from {
		return repositories.ErrStaleAssignment
	}
	c := *a
	c.Emergency = nil
	c.Volunteer = nil
	*stored = c
	f.transitions = append(f.transitions, fmt.Sprintf("%s:%s->%s", a.ID, from, a.Status))
	return nil
}

func (f *fakeAssignmentRepo) CountByEmergencyAndStatus(emergencyID string, status models.AssignmentStatus) (int64, error) {
	var n int64
	for _, a := range f.assignments {
		if a.EmergencyID == emergencyID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignmentRepo) CancelRequestedForEmergency(emergencyID string, now time.Time) (int64, error) {
	var n int64
	for _, a := range f.assignments {
		if a.EmergencyID == emergencyID && a.Status == models.AssignmentStatusRequested {
			a.Status = models.AssignmentStatusCancelled
			a.RespondedAt = &now
			f.cancelledRequested = append(f.cancelledRequested, a.ID)
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignmentRepo) FindOverdueRequested(cutoff time.Time) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.Status == models.AssignmentStatusRequested && a.AssignedAt.Before(cutoff) {
			c := *a
			f.hydrate(&c)
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) FindActiveByVolunteer(volunteerID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.VolunteerID == volunteerID &&
			(a.Status == models.AssignmentStatusRequested || a.Status == models.AssignmentStatusAccepted) {
			c := *a
			f.hydrate(&c)
			out = append(out, c)
		}
	}
	return out, nil
}

// -------------------------------
// Volunteer repository fake
// -------------------------------

type fakeVolunteerRepo struct {
	profiles map[string]*models.VolunteerProfile

	availability []string // "id:status"
}

func newFakeVolunteerRepo(profiles ...*models.VolunteerProfile) *fakeVolunteerRepo {
	repo := &fakeVolunteerRepo{profiles: map[string]*models.VolunteerProfile{}}
	for _, p := range profiles {
		repo.profiles[p.ID] = p
	}
	return repo
}

func (f *fakeVolunteerRepo) WithTx(*gorm.DB) repositories.VolunteerRepository { return f }

func (f *fakeVolunteerRepo) Create(p *models.VolunteerProfile) error {
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeVolunteerRepo) FindByID(id string) (*models.VolunteerProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repositories.ErrVolunteerNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeVolunteerRepo) FindByUserID(userID string) (*models.VolunteerProfile, error) {
	for _, p := range f.profiles {
		if p.UserID == userID {
			c := *p
			return &c, nil
		}
	}
	return nil, repositories.ErrVolunteerNotFound
}

func (f *fakeVolunteerRepo) Update(p *models.VolunteerProfile) error {
	stored, ok := f.profiles[p.ID]
	if !ok {
		return repositories.ErrVolunteerNotFound
	}
	*stored = *p
	return nil
}

func (f *fakeVolunteerRepo) SetAvailability(id string, status models.AvailabilityStatus) error {
	p, ok := f.profiles[id]
	if !ok {
		return repositories.ErrVolunteerNotFound
	}
	p.AvailabilityStatus = status
	f.availability = append(f.availability, fmt.Sprintf("%s:%s", id, status))
	return nil
}

func (f *fakeVolunteerRepo) FindCandidatesInBox(box geo.BoundingBox, skillIDs []string) ([]models.VolunteerProfile, error) {
	var out []models.VolunteerProfile
	for _, p := range f.profiles {
		if p.AvailabilityStatus != models.AvailabilityAvailable || !p.HasCoordinates() {
			continue
		}
		if *p.Latitude < box.MinLat || *p.Latitude > box.MaxLat ||
			*p.Longitude < box.MinLon || *p.Longitude > box.MaxLon {
			continue
		}
		if len(skillIDs) > 0 {
			matched := false
			for _, verified := range p.VerifiedSkillIDs() {
				for _, want := range skillIDs {
					if verified == want {
						matched = true
					}
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeVolunteerRepo) CountByAvailability(status models.AvailabilityStatus) (int64, error) {
	var n int64
	for _, p := range f.profiles {
		if p.AvailabilityStatus == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeVolunteerRepo) CountMatchable() (int64, error) { return 0, nil }

// -------------------------------
// Activity repository fake
// -------------------------------

type fakeActivityRepo struct {
	actions       []string
	notifications []string // "recipient:type"
}

func (f *fakeActivityRepo) WithTx(*gorm.DB) repositories.ActivityRepository { return f }

func (f *fakeActivityRepo) Create(*models.ActivityLog) error { return nil }

func (f *fakeActivityRepo) FindByID(string) (*models.ActivityLog, error) {
	return nil, repositories.ErrActivityNotFound
}

func (f *fakeActivityRepo) FindUserFeed(string, repositories.ActivityCriteria) ([]models.ActivityLog, int64, error) {
	return nil, 0, nil
}

func (f *fakeActivityRepo) FindEntityHistory(string, string) ([]models.ActivityLog, error) {
	return nil, nil
}

func (f *fakeActivityRepo) LogAction(_ *string, action, _ string, _ *string, _ map[string]interface{}, _ *models.RequestMeta) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeActivityRepo) LogNotification(recipientID, notificationType, _, _ string, _ map[string]interface{}) error {
	f.notifications = append(f.notifications, fmt.Sprintf("%s:%s", recipientID, notificationType))
	return nil
}

func (f *fakeActivityRepo) GetNotificationTimingStats(time.Time) (*repositories.NotificationTimingStats, error) {
	return &repositories.NotificationTimingStats{}, nil
}

func (f *fakeActivityRepo) CountSince(string, time.Time) (int64, error) { return 0, nil }

// -------------------------------
// User repository fake
// -------------------------------

type fakeUserRepo struct {
	users map[string]*models.User

	active  []string // "id:true|false"
	revoked []string // user IDs whose refresh tokens were revoked
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) WithTx(*gorm.DB) repositories.UserRepository { return f }

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Create(u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Update(u *models.User) error {
	stored, ok := f.users[u.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	*stored = *u
	return nil
}

func (f *fakeUserRepo) SetActive(userID string, activeFlag bool) error {
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsActive = activeFlag
	f.active = append(f.active, fmt.Sprintf("%s:%t", userID, activeFlag))
	return nil
}

func (f *fakeUserRepo) FindWithFilter(repositories.UserFilter) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) CountByRole(role models.UserRole) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) CreateRefreshToken(*models.RefreshToken) error { return nil }

func (f *fakeUserRepo) FindRefreshToken(string) (*models.RefreshToken, error) {
	return nil, repositories.ErrTokenNotFound
}

func (f *fakeUserRepo) RevokeRefreshToken(string) error { return nil }

func (f *fakeUserRepo) RevokeUserRefreshTokens(userID string) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

func (f *fakeUserRepo) CleanExpiredRefreshTokens() error { return nil }

// -------------------------------
// Skill repository fake
// -------------------------------

type fakeSkillRepo struct {
	skills map[string]*models.Skill
	claims map[string]*models.VolunteerSkill
}

func newFakeSkillRepo() *fakeSkillRepo {
	return &fakeSkillRepo{
		skills: map[string]*models.Skill{},
		claims: map[string]*models.VolunteerSkill{},
	}
}

func (f *fakeSkillRepo) WithTx(*gorm.DB) repositories.SkillRepository { return f }

func (f *fakeSkillRepo) CreateSkill(s *models.Skill) error {
	f.skills[s.ID] = s
	return nil
}

func (f *fakeSkillRepo) FindSkillByID(id string) (*models.Skill, error) {
	s, ok := f.skills[id]
	if !ok {
		return nil, repositories.ErrSkillNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSkillRepo) FindSkillsByIDs([]string) ([]models.Skill, error) { return nil, nil }
func (f *fakeSkillRepo) FindAllSkills() ([]models.Skill, error)           { return nil, nil }

func (f *fakeSkillRepo) FindSkillsByCategory(models.SkillCategory) ([]models.Skill, error) {
	return nil, nil
}

func (f *fakeSkillRepo) ClaimSkill(vs *models.VolunteerSkill) error {
	f.claims[vs.ID] = vs
	return nil
}

func (f *fakeSkillRepo) FindVolunteerSkill(id string) (*models.VolunteerSkill, error) {
	vs, ok := f.claims[id]
	if !ok {
		return nil, repositories.ErrVolunteerSkillNotFound
	}
	c := *vs
	return &c, nil
}

func (f *fakeSkillRepo) FindVolunteerSkills(string) ([]models.VolunteerSkill, error) {
	return nil, nil
}

func (f *fakeSkillRepo) FindPendingVerifications(int, int) ([]models.VolunteerSkill, int64, error) {
	return nil, 0, nil
}

func (f *fakeSkillRepo) SetVerification(id string, status models.VerificationStatus, verifiedBy string, verifiedAt time.Time) error {
	vs, ok := f.claims[id]
	if !ok {
		return repositories.ErrVolunteerSkillNotFound
	}
	vs.VerificationStatus = status
	vs.VerifiedBy = &verifiedBy
	vs.VerifiedAt = &verifiedAt
	return nil
}

func (f *fakeSkillRepo) CountVerifiedByVolunteer(string) (int64, error) { return 0, nil }
