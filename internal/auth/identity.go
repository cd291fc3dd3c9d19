package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/market"
	"tilapia-hub-api-server/internal/models"

	"github.com/google/uuid"
)

const minPasswordLength = 6

// Service is the identity provider: accounts, sign-in sessions and the
// resolution of a bearer token into a ledger.Actor.
type Service struct {
	profiles ledger.ProfileStore
	sessions SessionStore
	tokens   *TokenIssuer
	now      func() time.Time
}

func NewService(profiles ledger.ProfileStore, sessions SessionStore, tokens *TokenIssuer) *Service {
	return &Service{
		profiles: profiles,
		sessions: sessions,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SignUpInput struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	FullName string      `json:"fullName" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Phone    string      `json:"phone"`
	Location string      `json:"location"`
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Profile   models.Profile `json:"profile"`
}

func invalid(op, format string, args ...interface{}) error {
	return &ledger.Error{Op: op, Kind: ledger.ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// validLocation keeps profiles findable by the marketplace location filter.
// An empty location is allowed.
func validLocation(loc string) bool {
	return loc == "" || market.MarketLocation(loc)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new farmer or buyer.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.Profile, error) {
	const op = "auth.SignUp"

	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid(op, "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid(op, "password must be at least %d characters", minPasswordLength)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, invalid(op, "full name is required")
	}
	if !in.Role.Valid() {
		return nil, invalid(op, "role must be farmer or buyer")
	}
	location := strings.TrimSpace(in.Location)
	if !validLocation(location) {
		return nil, invalid(op, "unknown location %q", location)
	}

	_, err := s.profiles.GetProfileByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ledger.ErrNoDocument) {
		return nil, fmt.Errorf("%s: lookup email: %w", op, err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}
	now := s.now()
	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        strings.TrimSpace(in.Phone),
		Location:     location,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.profiles.InsertProfile(ctx, profile); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: insert profile: %w", op, err)
	}
	return profile, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ledger.ErrNoDocument) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: lookup user: %w", err)
	}
	if !CheckPasswordHash(password, profile.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sessionID := uuid.NewString()
	token, err := s.tokens.GenerateJWT(profile.ID, profile.Role, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: sign token: %w", err)
	}
	if err := s.sessions.Create(ctx, sessionID, profile.ID, s.tokens.TTL()); err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}
	return &Session{Token: token, ExpiresAt: now.Add(s.tokens.TTL()), Profile: *profile}, nil
}

// SignOut ends the session behind token. Resolving it afterwards fails.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return ErrUnauthenticated
	}
	return s.sessions.Revoke(ctx, claims.ID)
}

// Resolve turns a bearer token into the actor making the request.
func (s *Service) Resolve(ctx context.Context, token string) (ledger.Actor, error) {
	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return ledger.Actor{}, ErrUnauthenticated
	}
	profileID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		return ledger.Actor{}, err
	}
	if profileID == "" || profileID != claims.Subject {
		return ledger.Actor{}, ErrUnauthenticated
	}
	return ledger.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

// Profile returns the actor's own full profile.
func (s *Service) Profile(ctx context.Context, actor ledger.Actor) (*models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, actor.ID)
	if errors.Is(err, ledger.ErrNoDocument) {
		return nil, &ledger.Error{Op: "auth.Profile", Kind: ledger.ErrNotFound, ID: actor.ID, Msg: "profile not found"}
	}
	return p, err
}

// UpdateProfile edits the actor's own name, phone and location.
func (s *Service) UpdateProfile(ctx context.Context, actor ledger.Actor, patch ledger.ProfilePatch) (*models.Profile, error) {
	const op = "auth.UpdateProfile"
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	patch.FullName = trim(patch.FullName)
	patch.Phone = trim(patch.Phone)
	patch.Location = trim(patch.Location)
	if patch.FullName != nil && *patch.FullName == "" {
		return nil, invalid(op, "full name must not be empty")
	}
	if patch.Location != nil && !validLocation(*patch.Location) {
		return nil, invalid(op, "unknown location %q", *patch.Location)
	}

	p, err := s.profiles.UpdateProfile(ctx, actor.ID, patch, s.now())
	if errors.Is(err, ledger.ErrNoDocument) {
		return nil, &ledger.Error{Op: op, Kind: ledger.ErrNotFound, ID: actor.ID, Msg: "profile not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
