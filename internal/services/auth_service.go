package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"social-go/internal/apperr"
	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterInput carries exactly one contact credential: Email or Phone.
type RegisterInput struct {
	Username string     `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string     `json:"email" validate:"required_without=Phone,excluded_with=Phone,omitempty,email"`
	Phone    string     `json:"phone" validate:"required_without=Email,excluded_with=Email,omitempty,e164"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Birthday *time.Time `json:"birthday"`
}

type LoginInput struct {
	// Identifier is a username, email or phone number.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService registers accounts, issues tokens and resolves bearer tokens
// back to users.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	cfg       config.AuthConfig
}

func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, cfg config.AuthConfig) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	now := models.Now()
	user := &models.User{
		ID:                       models.NewID(),
		Username:                 in.Username,
		Email:                    in.Email,
		Phone:                    in.Phone,
		PasswordHash:             hashedPassword,
		Birthday:                 in.Birthday,
		LastSeenAt:               &now,
		CreatedAt:                now,
		PostIDs:                  []string{},
		ReactionIDs:              []string{},
		CommentIDs:               []string{},
		ReplyIDs:                 []string{},
		FriendIDs:                []string{},
		NotificationIDs:          []string{},
		SentFriendRequestIDs:     []string{},
		ReceivedFriendRequestIDs: []string{},
	}
	// The unique indexes on username, email and phone decide races.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrIdentityTaken
		}
		return nil, apperr.Internal("create user", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	user, err := s.findByIdentifier(ctx, strings.TrimSpace(in.Identifier))
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	lookups := []func(context.Context, string) (*models.User, error){s.userRepo.GetByUsername}
	switch {
	case strings.Contains(identifier, "@"):
		identifier = strings.ToLower(identifier)
		lookups = []func(context.Context, string) (*models.User, error){s.userRepo.GetByEmail}
	case strings.HasPrefix(identifier, "+"):
		lookups = []func(context.Context, string) (*models.User, error){s.userRepo.GetByPhone}
	}
	for _, lookup := range lookups {
		user, err := lookup(ctx, identifier)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Internal("find user by identifier", err)
		}
	}
	// Unknown identifiers and wrong passwords look the same to the caller.
	return nil, ErrInvalidCredentials
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := auth.GenerateToken(user.ID, user.Username, s.cfg)
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	user.PasswordHash = ""
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout revokes the token behind claims until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	expiresAt := time.Now().Add(s.cfg.JWTExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.blacklist.Add(ctx, claims.ID, expiresAt); err != nil {
		return apperr.Internal("blacklist token", err)
	}
	return nil
}

// Authenticate validates token and loads its user.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := auth.ValidateToken(ctx, token, s.cfg, s.blacklist)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
			return nil, nil, ErrInvalidToken.WithInternal(err)
		}
		return nil, nil, apperr.Internal("validate token", err)
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, apperr.Internal("load token user", err)
	}
	return user, claims, nil
}
