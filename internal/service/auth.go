package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlevchenko/studyhub/internal/events"
	"github.com/mlevchenko/studyhub/internal/hash"
	"github.com/mlevchenko/studyhub/internal/logging"
	"github.com/mlevchenko/studyhub/internal/mailer"
	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/repo"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Codec  *tokens.Codec
	Mailer mailer.Mailer
	Events events.Publisher // optional
	// BaseURL is the public origin used to build verification links.
	BaseURL string
}

type SignupResult struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type AccessResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type ActivationResult struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Signup creates an inactive learner account and dispatches a verification
// mail. The mail (and event) dispatch must not fail the signup: the row is
// already committed and the user can re-request verification later.
func (s *AuthService) Signup(ctx context.Context, firstName, lastName, email, password string) (*SignupResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if firstName == "" || email == "" || password == "" {
		return nil, ErrValidation
	}

	// Pre-check only; the unique index on users.email is what actually
	// serializes concurrent signups.
	if _, err := s.Repo.FindUserByEmail(ctx, email); err == nil {
		l.Warn("signup_conflict", "status", 409)
		return nil, ErrConflict
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		FirstName:    firstName,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleLearner,
		IsActive:     false,
	}
	if lastName != "" {
		user.LastName = &lastName
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("signup_conflict", "status", 409)
			return nil, ErrConflict
		}
		l.Error("signup_error", "status", 500, "error", err)
		return nil, err
	}

	if err := s.sendVerificationEmail(ctx, &user); err != nil {
		l.Warn("verification_mail_failed", "user_id", user.ID, "error", err)
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	l.Info("signup_successful", "user_id", user.ID)
	return &SignupResult{UserID: user.ID, Email: user.Email}, nil
}

// Login verifies the credentials and mints an access/refresh pair from the
// same instant. Unknown email and wrong password return the identical
// error so neither case is distinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		l.Warn("login_failed", "status", 403, "reason", "account inactive", "user_id", user.ID)
		return nil, ErrAccountInactive
	}

	now := time.Now().UTC()
	accessToken, err := s.Codec.SignAccess(user.ID.String(), string(user.Role), now)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	refreshToken, err := s.Codec.SignRefresh(user.ID.String(), now)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(tokens.AccessTTL.Seconds()),
	}, nil
}

// RefreshAccessToken mints a fresh access token for the holder of a valid
// refresh token. The role is re-read from the directory, not taken from
// the refresh token, so role changes apply on the next refresh.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*AccessResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.Parse(refreshToken, tokens.KindRefresh)
	if err != nil {
		if errors.Is(err, tokens.ErrWrongKind) {
			l.Warn("refresh_failed", "status", 400, "reason", "wrong token kind")
			return nil, ErrInvalidTokenType
		}
		l.Warn("refresh_failed", "status", 401, "error", err)
		return nil, err
	}

	user, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		l.Warn("refresh_failed", "status", 404, "reason", "user not found")
		return nil, err
	}

	accessToken, err := s.Codec.SignAccess(user.ID.String(), string(user.Role), time.Now().UTC())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return &AccessResult{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(tokens.AccessTTL.Seconds()),
	}, nil
}

// ActivateEmail flips the account active exactly once. A second activation
// with any valid token is rejected, and no side effects are re-dispatched.
func (s *AuthService) ActivateEmail(ctx context.Context, token string) (*ActivationResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.activate")

	claims, err := s.Codec.Parse(token, tokens.KindEmailVerification)
	if err != nil {
		if errors.Is(err, tokens.ErrWrongKind) {
			l.Warn("activation_failed", "status", 400, "reason", "wrong token kind")
			return nil, ErrInvalidTokenType
		}
		l.Warn("activation_failed", "status", 401, "error", err)
		return nil, err
	}

	user, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		l.Warn("activation_failed", "status", 404, "reason", "user not found")
		return nil, err
	}

	if user.IsActive {
		l.Warn("activation_failed", "status", 400, "reason", "already active", "user_id", user.ID)
		return nil, ErrAlreadyActive
	}

	user.IsActive = true
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		l.Error("activation_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":    "user_activated",
		"user_id": user.ID,
	})

	l.Info("activation_successful", "user_id", user.ID)
	return &ActivationResult{UserID: user.ID, Email: user.Email}, nil
}

// RequestEmailVerification always mints a fresh token. Earlier tokens stay
// valid until their own expiry.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.request_verification")

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("request_verification_failed", "status", 404, "reason", "user not found")
			return ErrUserNotFound
		}
		return err
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		l.Error("request_verification_failed", "status", 500, "error", err)
		return err
	}

	l.Info("verification_mail_sent", "user_id", user.ID)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	if newPassword == "" {
		return ErrValidation
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.overwritePassword(ctx, user, newPassword); err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("password_changed", "user_id", user.ID)
	return nil
}

// ResetPassword overwrites the hash for the account behind email.
// TODO: require a reset token minted through the mail flow; right now the
// operation takes no proof of identity, matching the behavior this service
// replaces.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if newPassword == "" {
		return ErrValidation
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.overwritePassword(ctx, user, newPassword); err != nil {
		l.Error("reset_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("password_reset", "user_id", user.ID)
	return nil
}

// SignOut is a no-op: tokens are not revocable in this service. Kept for
// API parity.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.Repo.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *AuthService) overwritePassword(ctx context.Context, user *models.User, newPassword string) error {
	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = pwHash
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":    "password_changed",
		"user_id": user.ID,
	})
	return nil
}

func (s *AuthService) resolveSubject(ctx context.Context, subject string) (*models.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, user *models.User) error {
	token, err := s.Codec.SignEmailVerification(user.ID.String(), time.Now().UTC())
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.BaseURL, token)
	subject := "Verify your email"
	body := "Please verify your email by clicking on the following link: " + link

	return s.Mailer.Send(ctx, user.Email, subject, body)
}

func (s *AuthService) publish(ctx context.Context, userID uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.UserEventsTopic, userID.String(), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", events.UserEventsTopic, "error", err)
	}
}
