package handlers

// AppHandlers groups every HTTP handler for route registration.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	VolunteerHandler  *VolunteerHandler
	EmergencyHandler  *EmergencyHandler
	AssignmentHandler *AssignmentHandler
	ActivityHandler   *ActivityHandler
	AdminHandler      *AdminHandler
}
