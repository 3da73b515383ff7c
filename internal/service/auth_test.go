package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

func TestAuthService_Signup_CreatesInactiveLearner(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	res, err := env.svc.Signup(ctx, "Alice", "Smith", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "alice@example.com", res.Email)
	assert.NotEqual(t, uuid.Nil, res.UserID)

	user, err := env.repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleLearner, user.Role)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	require.NotNil(t, user.LastName)
	assert.Equal(t, "Smith", *user.LastName)

	require.Equal(t, 1, env.mailer.count())
	mail := env.mailer.last(t)
	assert.Equal(t, "alice@example.com", mail.To)
	assert.Equal(t, "Verify your email", mail.Subject)

	// The token in the mail really is an email-verification token for
	// the new user.
	claims, err := env.codec.Parse(verificationToken(t, env.mailer), tokens.KindEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, res.UserID.String(), claims.Subject)

	assert.Equal(t, 1, env.events.countType("user_registered"))
}

func TestAuthService_Signup_Validation(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		firstName string
		email     string
		password  string
	}{
		{name: "empty first name", firstName: "", email: "a@x.com", password: "pw"},
		{name: "empty email", firstName: "A", email: "", password: "pw"},
		{name: "empty password", firstName: "A", email: "a@x.com", password: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.Signup(ctx, tt.firstName, "", tt.email, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Signup_DuplicateEmail_Conflict(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "", "a@x.com", "pw1")
	require.NoError(t, err)

	res, err := env.svc.Signup(ctx, "Mallory", "", "a@x.com", "pw2")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrConflict)

	// No second row, no second mail.
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 1, env.mailer.count())
}

func TestAuthService_Signup_MailFailureDoesNotFailSignup(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	env.mailer.err = assert.AnError
	ctx := context.Background()

	res, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, res)

	_, err = env.repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)
	activate(t, env, "alice@example.com")

	// Unknown email and wrong password fail with the identical error so
	// the caller cannot tell which one it was.
	res, errUnknown := env.svc.Login(ctx, "nobody@example.com", "Secret123")
	assert.Nil(t, res)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)

	res, errWrongPw := env.svc.Login(ctx, "alice@example.com", "WrongPassword")
	assert.Nil(t, res)
	require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)

	assert.Equal(t, errUnknown, errWrongPw)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)

	res, err := env.svc.Login(ctx, "alice@example.com", "Secret123")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_FullFlow_SignupActivateLoginRefresh(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	signup, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)

	activation, err := env.svc.ActivateEmail(ctx, verificationToken(t, env.mailer))
	require.NoError(t, err)
	assert.Equal(t, signup.UserID, activation.UserID)
	assert.Equal(t, "alice@example.com", activation.Email)

	pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int(tokens.AccessTTL.Seconds()), pair.ExpiresIn)

	accessClaims, err := env.codec.Parse(pair.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, signup.UserID.String(), accessClaims.Subject)
	assert.Equal(t, string(models.RoleLearner), accessClaims.Role)

	refreshClaims, err := env.codec.Parse(pair.RefreshToken, tokens.KindRefresh)
	require.NoError(t, err)
	assert.Empty(t, refreshClaims.Role)
	// Both tokens share the same issued-at instant.
	assert.Equal(t, accessClaims.IssuedAt.Time, refreshClaims.IssuedAt.Time)

	refreshed, err := env.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	newClaims, err := env.codec.Parse(refreshed.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleLearner), newClaims.Role)
}

func TestAuthService_ActivateEmail_Twice_AlreadyActive(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)
	token := verificationToken(t, env.mailer)

	_, err = env.svc.ActivateEmail(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 1, env.events.countType("user_activated"))

	res, err := env.svc.ActivateEmail(ctx, token)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	// The failed second activation dispatches nothing.
	assert.Equal(t, 1, env.events.countType("user_activated"))
}

func TestAuthService_ActivateEmail_WrongKind(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	refresh, err := env.codec.SignRefresh(uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)

	res, err := env.svc.ActivateEmail(ctx, refresh)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestAuthService_ActivateEmail_UnknownUser(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	token, err := env.codec.SignEmailVerification(uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)

	res, err := env.svc.ActivateEmail(ctx, token)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_ActivateEmail_BadToken(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	res, err := env.svc.ActivateEmail(ctx, "not-a-valid-jwt")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, tokens.ErrMalformed)
}

func TestAuthService_Refresh_WrongKind(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	access, err := env.codec.SignAccess(uuid.NewString(), "LEARNER", time.Now().UTC())
	require.NoError(t, err)

	res, err := env.svc.RefreshAccessToken(ctx, access)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestAuthService_Refresh_UnknownUser(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	refresh, err := env.codec.SignRefresh(uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)

	res, err := env.svc.RefreshAccessToken(ctx, refresh)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	refresh, err := env.codec.SignRefresh(uuid.NewString(), time.Now().UTC().Add(-8*24*time.Hour))
	require.NoError(t, err)

	res, err := env.svc.RefreshAccessToken(ctx, refresh)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, tokens.ErrExpired)
}

func TestAuthService_Refresh_UsesCurrentRole(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	signup, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)
	activate(t, env, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)

	// Promote after login; the refresh token itself knows nothing about
	// roles.
	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", signup.UserID).
		Update("role", models.RoleAuthor).Error)

	refreshed, err := env.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := env.codec.Parse(refreshed.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAuthor), claims.Role)
}

func TestAuthService_RequestEmailVerification(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	err := env.svc.RequestEmailVerification(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, 1, env.mailer.count())

	// A re-request always mints and sends a fresh token.
	require.NoError(t, env.svc.RequestEmailVerification(ctx, "alice@example.com"))
	require.Equal(t, 2, env.mailer.count())

	_, err = env.svc.ActivateEmail(ctx, verificationToken(t, env.mailer))
	require.NoError(t, err)
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	signup, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "OldSecret")
	require.NoError(t, err)
	activate(t, env, "alice@example.com")

	require.NoError(t, env.svc.ChangePassword(ctx, signup.UserID, "NewSecret"))

	_, err = env.svc.Login(ctx, "alice@example.com", "OldSecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err := env.svc.Login(ctx, "alice@example.com", "NewSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	assert.Equal(t, 1, env.events.countType("password_changed"))

	err = env.svc.ChangePassword(ctx, uuid.New(), "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "OldSecret")
	require.NoError(t, err)
	activate(t, env, "alice@example.com")

	require.NoError(t, env.svc.ResetPassword(ctx, "alice@example.com", "NewSecret"))

	_, err = env.svc.Login(ctx, "alice@example.com", "OldSecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "alice@example.com", "NewSecret")
	require.NoError(t, err)

	err = env.svc.ResetPassword(ctx, "nobody@example.com", "NewSecret")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_SignOut(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t)
	ctx := context.Background()

	signup, err := env.svc.Signup(ctx, "Alice", "", "alice@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, env.svc.SignOut(ctx, signup.UserID))

	err = env.svc.SignOut(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// activate flips the account active through the real verification flow.
func activate(t *testing.T, env *authEnv, email string) {
	t.Helper()

	require.NoError(t, env.svc.RequestEmailVerification(context.Background(), email))
	_, err := env.svc.ActivateEmail(context.Background(), verificationToken(t, env.mailer))
	require.NoError(t, err)
}
