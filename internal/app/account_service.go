package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"account-service/internal/model"
	"account-service/internal/repository"
)

// UserStore is the credential store. Create must run the model hook that
// validates and hashes, and must report unique index violations as
// repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	UpdateLastLogin(ctx context.Context, user *model.User, at time.Time) error
}

type TokenIssuer interface {
	Issue(userID uint) (string, error)
	Verify(token string) (uint, error)
}

type ProfileCache interface {
	Get(ctx context.Context, userID uint) (*model.Profile, bool, error)
	Set(ctx context.Context, profile model.Profile) error
	Delete(ctx context.Context, userID uint) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type AccountService struct {
	users  UserStore
	tokens TokenIssuer
	logger *slog.Logger

	profiles ProfileCache
	events   EventPublisher
	now      func() time.Time
}

type Option func(*AccountService)

func WithProfileCache(c ProfileCache) Option {
	return func(s *AccountService) { s.profiles = c }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *AccountService) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) { s.now = now }
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAccountService(users UserStore, tokens TokenIssuer, logger *slog.Logger, opts ...Option) *AccountService {
	s := &AccountService{
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, badRequest(MsgMissingRegisterFields)
	}

	existing, err := s.users.GetByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		return nil, internal(err)
	}
	if existing != nil {
		return nil, conflict(nil)
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			return nil, validation(verrs)
		case errors.Is(err, repository.ErrDuplicate):
			// lost the race against a concurrent registration
			return nil, conflict(err)
		default:
			return nil, internal(err)
		}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internal(err)
	}

	s.publish(ctx, user.ID, model.AuthEventRegistered)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		return nil, badRequest(MsgMissingLoginFields)
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		// keep the unknown-email path as slow as a real comparison
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(input.Password))
		return nil, unauthorized(MsgInvalidCredentials, nil)
	}
	if !user.CheckPassword(input.Password) {
		return nil, unauthorized(MsgInvalidCredentials, nil)
	}

	if err := s.users.UpdateLastLogin(ctx, user, s.now()); err != nil {
		return nil, internal(err)
	}
	s.forgetProfile(ctx, user.ID)

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internal(err)
	}

	s.publish(ctx, user.ID, model.AuthEventLoggedIn)
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves the user behind a bearer token. Every token failure
// and a vanished user collapse into the same unauthorized error.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, unauthorized(MsgSessionExpired, err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, unauthorized(MsgSessionExpired, nil)
	}
	return user, nil
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*model.Profile, error) {
	if s.profiles != nil {
		cached, ok, err := s.profiles.Get(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "profile cache read failed", "user_id", userID, "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, notFound(MsgUserNotFound)
	}

	profile := user.Profile()
	if s.profiles != nil {
		if err := s.profiles.Set(ctx, profile); err != nil {
			s.logger.WarnContext(ctx, "profile cache write failed", "user_id", userID, "error", err)
		}
	}
	return &profile, nil
}

func (s *AccountService) forgetProfile(ctx context.Context, userID uint) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (s *AccountService) publish(ctx context.Context, userID uint, kind model.AuthEventKind) {
	if s.events == nil {
		return
	}
	event := model.AuthEvent{UserID: userID, Kind: kind, OccurredAt: s.now()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish auth event failed", "user_id", userID, "kind", kind, "error", err)
	}
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("hash timing guard password: %v", err))
	}
	return hash
})

const dummyPassword = "account-service-timing-guard"
