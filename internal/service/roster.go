package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/queue"
	"github.com/iliyamo/campus-portal/internal/repository"
	"github.com/iliyamo/campus-portal/internal/utils"
)

// RosterConfig carries the token and hashing settings of the roster.
type RosterConfig struct {
	JWTSecret        string
	AccessTTLMin     int
	RefreshTTLDays   int
	BcryptCost       int
	AllowStaffSignup bool
}

// RosterService owns sign-up, login, sessions and roster administration.
// The roster is the single source of truth for a user; a session only
// references it by id through the access token subject.
type RosterService struct {
	clock
	cfg      RosterConfig
	users    UserStore
	tokens   TokenStore
	ledger   LedgerStore
	bookings BookingStore
	pub      Publisher
}

func NewRosterService(cfg RosterConfig, users UserStore, tokens TokenStore, ledger LedgerStore, bookings BookingStore, pub Publisher) *RosterService {
	return &RosterService{
		clock:    newClock(),
		cfg:      cfg,
		users:    users,
		tokens:   tokens,
		ledger:   ledger,
		bookings: bookings,
		pub:      pub,
	}
}

// Session is what login, sign-up and refresh hand back to the client.
type Session struct {
	User    model.User         `json:"user"`
	Access  utils.AccessToken  `json:"access"`
	Refresh utils.RefreshToken `json:"refresh"`
}

// SignupInput is the sign-up form.
type SignupInput struct {
	Name       string
	Email      string
	Password   string
	Role       model.Role
	Department *string
	Year       *string
}

// Signup creates a user with an empty history and logs them in.
func (s *RosterService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return Session{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	// bcrypt reads at most 72 bytes; multibyte runes reach that early.
	if len(in.Password) > utils.MaxPasswordBytes {
		return Session{}, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, utils.MaxPasswordBytes)
	}
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if !in.Role.Valid() {
		return Session{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if in.Role.IsStaff() && !s.cfg.AllowStaffSignup {
		return Session{}, repository.ErrForbidden
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   optional(in.Department),
		Year:         optional(in.Year),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return Session{}, err
	}
	log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	emit(ctx, s.pub, queue.NewEvent(queue.UserRegistered, u.ID, queue.UserData{Email: u.Email, Role: string(u.Role)}))
	return s.issueSession(ctx, u)
}

// Login checks credentials and opens a session.
func (s *RosterService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, u)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *RosterService) Refresh(ctx context.Context, raw string) (Session, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.validRefresh(ctx, hash)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidRefresh
	}
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, u)
}

// RefreshAccess mints a new access token without rotating the refresh token.
func (s *RosterService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	userID, err := s.validRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if err != nil {
		return utils.AccessToken{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.AccessToken{}, ErrInvalidRefresh
	}
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.JWTSecret, u.ID, string(u.Role), s.cfg.AccessTTLMin)
}

// Logout revokes a single refresh token.
func (s *RosterService) Logout(ctx context.Context, raw string) error {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	if _, err := s.validRefresh(ctx, hash); err != nil {
		return err
	}
	return s.tokens.RevokeByHash(ctx, hash)
}

// LogoutAll revokes every refresh token of a user.
func (s *RosterService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// DeleteUser removes target from the roster.  The caller must be staff and
// must not be the target.  Everything owned by the target goes with it.
func (s *RosterService) DeleteUser(ctx context.Context, callerID, targetID string) error {
	if err := s.requireStaff(ctx, callerID); err != nil {
		return err
	}
	if callerID == targetID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	log.Info().Str("user_id", targetID).Str("actor_id", callerID).Msg("user deleted")
	emit(ctx, s.pub, queue.NewEvent(queue.UserDeleted, targetID, queue.UserData{ActorID: callerID}))
	return nil
}

// UpdateProfileImage sets the user's profile image and returns the user.
func (s *RosterService) UpdateProfileImage(ctx context.Context, userID, image string) (model.User, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return model.User{}, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	if err := s.users.UpdateProfileImage(ctx, userID, image); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	return u.Public(), err
}

// Profile returns the user with derived balance, history and bookings.
func (s *RosterService) Profile(ctx context.Context, userID string) (model.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	history, err := s.ledger.History(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		User:     u.Public(),
		Points:   model.SumDeltas(history),
		History:  history,
		Bookings: bookings,
	}, nil
}

// ListUsers returns the roster with balances for the staff dashboard.  The
// caller is looked up again, so a staff account deleted after its token
// was issued is refused.
func (s *RosterService) ListUsers(ctx context.Context, callerID string) ([]model.RosterEntry, error) {
	if err := s.requireStaff(ctx, callerID); err != nil {
		return nil, err
	}
	rows, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].User = rows[i].User.Public()
	}
	return rows, nil
}

// requireStaff checks the caller against the roster rather than the token.
func (s *RosterService) requireStaff(ctx context.Context, callerID string) error {
	caller, err := s.users.GetByID(ctx, callerID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ErrForbidden
	}
	if err != nil {
		return err
	}
	if !caller.Role.IsStaff() {
		return repository.ErrForbidden
	}
	return nil
}

func (s *RosterService) validRefresh(ctx context.Context, hash string) (string, error) {
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidRefresh
	}
	return userID, err
}

func (s *RosterService) issueSession(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, string(u.Role), s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Session{User: u.Public(), Access: access, Refresh: refresh}, nil
}

// optional trims p and maps blank values to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
