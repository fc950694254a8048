package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/cpf"
	"github.com/pedidosapp/pedidos/internal/hash"
	"github.com/pedidosapp/pedidos/internal/logging"
	"github.com/pedidosapp/pedidos/internal/models"
	"github.com/pedidosapp/pedidos/internal/tokens"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrConflict     = errors.New("conflict")     // 409
)

// DefaultProfilePicture is used until the user uploads their own.
const DefaultProfilePicture = "https://i.pinimg.com/236x/a8/da/22/a8da222be70a71e7858bf752065d5cc3.jpg"

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Service struct {
	Repo          *GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CPF      string `json:"cpf"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         models.User
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if req.FullName == "" {
		return nil, fmt.Errorf("%w: full name required", ErrValidation)
	}
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must have at least 6 characters", ErrValidation)
	}
	if !cpf.Valid(req.CPF) {
		return nil, fmt.Errorf("%w: invalid cpf", ErrValidation)
	}

	if _, err := s.Repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.Password(req.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:          req.Email,
		PasswordHash:   pwHash,
		FullName:       req.FullName,
		CPF:            cpf.Strip(req.CPF),
		ProfilePicture: DefaultProfilePicture,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login failed", "reason", "bad password")
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	stored, err := s.Repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown refresh token", ErrUnauthorized)
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.Repo.GetUser(ctx, userID)
}

type UpdateProfileRequest struct {
	FullName       *string `json:"full_name"`
	ProfilePicture *string `json:"profile_picture"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if *req.FullName == "" {
			return nil, fmt.Errorf("%w: full name required", ErrValidation)
		}
		user.FullName = *req.FullName
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
		if user.ProfilePicture == "" {
			user.ProfilePicture = DefaultProfilePicture
		}
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Role maps the employee flag onto token roles.
func Role(u *models.User) string {
	if u.IsEmployee {
		return tokens.RoleEmployee
	}
	return tokens.RoleCustomer
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(accessTokenTTL)
	accessToken, err := tokens.NewAccessToken(Role(user), user.ID.String(), accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(refreshTokenTTL)
	refreshToken, err := tokens.NewRefreshToken(user.ID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.AddRefreshToken(ctx, user.ID, refreshToken, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         *user,
	}, nil
}
