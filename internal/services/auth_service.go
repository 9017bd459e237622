package services

import (
	"errors"
	"time"

	"crisislink_backend/internal/auth"
	"crisislink_backend/internal/config"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(req *dto.RegisterRequest, meta *models.RequestMeta) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest, meta *models.RequestMeta) (*dto.AuthResponse, error)
	Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error)
	Logout(req *dto.RefreshRequest) error
	ChangePassword(userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	db           *gorm.DB
	userRepo     repositories.UserRepository
	activityRepo repositories.ActivityRepository
}

func NewAuthService(db *gorm.DB, userRepo repositories.UserRepository, activityRepo repositories.ActivityRepository) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		activityRepo: activityRepo,
	}
}

func (s *authService) Register(req *dto.RegisterRequest, meta *models.RequestMeta) (*dto.AuthResponse, error) {
	role := models.UserRole(req.Role)
	// Admin accounts are provisioned out of band, never via self-registration
	if role != models.UserRoleVolunteer && role != models.UserRoleAuthority {
		return nil, apperrors.ErrInvalidUserRole
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(&user.ID, repositories.ActionUserRegistered, "user", &user.ID, map[string]interface{}{
			"role": user.Role,
		}, meta)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, apperrors.InternalError(err)
	}

	return s.issueTokens(user)
}

func (s *authService) Login(req *dto.LoginRequest, meta *models.RequestMeta) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	if err := s.activityRepo.LogAction(&user.ID, repositories.ActionUserLogin, "user", &user.ID, nil, meta); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	stored, err := s.userRepo.FindRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.NewUnauthorizedError("Refresh token expired")
	}

	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	// Rotate: the presented token dies with the exchange
	if err := s.userRepo.RevokeRefreshToken(stored.Token); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.issueTokens(user)
}

func (s *authService) Logout(req *dto.RefreshRequest) error {
	if err := s.userRepo.RevokeRefreshToken(req.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) ChangePassword(userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ValidationError(map[string]string{"new_password": err.Error()})
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	user.PasswordHash = hash

	err = s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		if err := userRepo.Update(user); err != nil {
			return err
		}
		// Password change invalidates every open session
		return userRepo.RevokeUserRefreshTokens(user.ID)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) issueTokens(user *models.User) (*dto.AuthResponse, error) {
	access, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	cfg := config.GetConfig()
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Duration(cfg.JWT.RefreshTTL) * time.Hour),
	}
	if err := s.userRepo.CreateRefreshToken(refresh); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		User:         dto.NewUserResponse(user),
	}, nil
}
