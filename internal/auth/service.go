package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/synapaxon/question-bank/internal/auth/jwt"
	"github.com/synapaxon/question-bank/internal/db/repository"
	"github.com/synapaxon/question-bank/internal/quota"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// UserStore is the persistence collaborator for accounts.
type UserStore interface {
	Create(ctx context.Context, user repository.User) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (repository.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (repository.User, error)
	LinkGoogleID(ctx context.Context, id primitive.ObjectID, googleID string) error
	List(ctx context.Context) ([]repository.User, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (repository.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountByPlan(ctx context.Context) (map[string]int64, error)
}

// Service handles authentication and account management.
type Service struct {
	users    UserStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new account with the student role on the free plan.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	if req.Name == "" {
		return nil, "", fmt.Errorf("name required")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, "", fmt.Errorf("please provide a valid email")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	created, err := s.users.Create(ctx, repository.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         RoleStudent,
		Plan:         quota.PlanFree,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	user := userView(created)
	token, err := s.signToken(created)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", req.Email).Msg("user registered")
	return &user, token, nil
}

// Login authenticates a user with email/password. Accounts created through
// Google carry no password and cannot log in this way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, string, error) {
	stored, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if stored.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := VerifyPassword(stored.PasswordHash, req.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	user := userView(stored)
	token, err := s.signToken(stored)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &user, token, nil
}

// LoginWithGoogle signs in the account matching the Google identity,
// linking or creating one as needed.
func (s *Service) LoginWithGoogle(ctx context.Context, info *OAuthUserInfo) (*User, string, error) {
	if info.Email == "" {
		return nil, "", fmt.Errorf("google did not return an email")
	}

	stored, err := s.users.GetByGoogleID(ctx, info.ProviderID)
	if errors.Is(err, repository.ErrNotFound) {
		stored, err = s.users.GetByEmail(ctx, info.Email)
		if err == nil {
			// Existing password account; link the Google identity.
			if linkErr := s.users.LinkGoogleID(ctx, stored.ID, info.ProviderID); linkErr != nil {
				return nil, "", fmt.Errorf("link google id: %w", linkErr)
			}
		} else if errors.Is(err, repository.ErrNotFound) {
			stored, err = s.users.Create(ctx, repository.User{
				Name:     info.Name,
				Email:    info.Email,
				GoogleID: info.ProviderID,
				Role:     RoleStudent,
				Plan:     quota.PlanFree,
			})
			if err != nil {
				return nil, "", fmt.Errorf("create google user: %w", err)
			}
			s.logger.Info().Str("user_id", stored.ID.Hex()).Msg("google user created")
		} else {
			return nil, "", fmt.Errorf("lookup email: %w", err)
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("lookup google id: %w", err)
	}

	user := userView(stored)
	token, err := s.signToken(stored)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("google user logged in")
	return &user, token, nil
}

// GetUser fetches the account view for an id.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*User, error) {
	stored, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user := userView(stored)
	return &user, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.Validate(tokenString)
}

// ListUsers returns every account, newest first. Admin only, enforced at
// the routing layer.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	stored, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(stored))
	for _, u := range stored {
		users = append(users, userView(u))
	}
	return users, nil
}

// UpdateUser applies admin changes to an account's name, role or plan.
func (s *Service) UpdateUser(ctx context.Context, id primitive.ObjectID, req UpdateUserRequest) (*User, error) {
	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Role != "" {
		if req.Role != RoleStudent && req.Role != RoleAdmin {
			return nil, fmt.Errorf("role must be one of: student, admin")
		}
		fields["role"] = req.Role
	}
	if req.Plan != "" {
		if req.Plan != quota.PlanFree && req.Plan != quota.PlanPro && req.Plan != quota.PlanPremium {
			return nil, fmt.Errorf("plan must be one of: free, pro, premium")
		}
		fields["plan"] = req.Plan
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("nothing to update")
	}

	stored, err := s.users.Update(ctx, id, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user := userView(stored)
	return &user, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// CountUsers returns the total number of accounts.
func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// UsersByPlan returns account counts grouped by subscription plan.
func (s *Service) UsersByPlan(ctx context.Context) (map[string]int64, error) {
	return s.users.CountByPlan(ctx)
}

func (s *Service) signToken(stored repository.User) (string, error) {
	token, err := s.tokenMgr.Generate(jwt.User{
		ID:    stored.ID.Hex(),
		Name:  stored.Name,
		Email: stored.Email,
		Role:  stored.Role,
		Plan:  stored.Plan,
	})
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func userView(stored repository.User) User {
	return User{
		ID:           stored.ID.Hex(),
		Name:         stored.Name,
		Email:        stored.Email,
		Role:         stored.Role,
		Plan:         stored.Plan,
		AIUsageLimit: quota.LimitForPlan(stored.Plan),
	}
}
