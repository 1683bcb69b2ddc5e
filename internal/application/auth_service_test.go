package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shresth2708/edu-api/internal/domain/entity"
	"github.com/shresth2708/edu-api/internal/domain/repository"
	"github.com/shresth2708/edu-api/pkg/cache"
	"github.com/shresth2708/edu-api/pkg/helpers"
)

// In-memory repository fakes. The user fake shares the token fake so
// Register behaves like the real single-transaction implementation.

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.RefreshToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, rt *entity.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rt
	f.tokens[rt.Token] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeTokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeTokenRepo) countForUser(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rt := range f.tokens {
		if rt.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fakeTokenRepo) expire(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[token]; ok {
		rt.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	tokens *fakeTokenRepo
}

func newFakeUserRepo(tokens *fakeTokenRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User), tokens: tokens}
}

func (f *fakeUserRepo) Register(ctx context.Context, u *entity.User, rt *entity.RefreshToken) error {
	f.mu.Lock()
	for _, ex := range f.users {
		if ex.Email == u.Email || (u.Phone != "" && ex.Phone == u.Phone) {
			f.mu.Unlock()
			return repository.ErrDuplicate
		}
	}
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	f.mu.Unlock()

	if rt != nil {
		rt.UserID = u.ID
		return f.tokens.Create(ctx, rt)
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || (phone != "" && u.Phone == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ex.FirstName, ex.LastName, ex.AvatarURL = u.FirstName, u.LastName, u.AvatarURL
	ex.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUserRepo) SetEmailVerified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsEmailVerified = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUserRepo) deactivate(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsActive = false
	}
}

var (
	_ repository.UserRepository         = (*fakeUserRepo)(nil)
	_ repository.RefreshTokenRepository = (*fakeTokenRepo)(nil)
)

type authFixture struct {
	svc    *AuthService
	users  *fakeUserRepo
	tokens *fakeTokenRepo
	store  *cache.MemoryStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens := newFakeTokenRepo()
	users := newFakeUserRepo(tokens)
	store := cache.NewMemoryStore()
	svc := &AuthService{
		Users:  users,
		Tokens: tokens,
		Cache:  store,
		JWT:    helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 720*time.Hour),
		Logger: logger,
	}
	return &authFixture{svc: svc, users: users, tokens: tokens, store: store}
}

func (f *authFixture) register(t *testing.T, email, phone string) (*entity.User, TokenPair) {
	t.Helper()
	u, pair, err := f.svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "Sup3r!secret",
		Phone:     phone,
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      entity.RoleStudent,
	})
	require.NoError(t, err)
	return u, pair
}

// cachedOTP peeks the OTP the service issued for a user without consuming it.
func (f *authFixture) cachedOTP(t *testing.T, purpose, userID string) string {
	t.Helper()
	var code string
	require.True(t, f.store.Get(context.Background(), helpers.OTPKey(purpose, userID), &code))
	return code
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	u, pair := f.register(t, "jane@example.com", "+15550100")

	require.NotEmpty(t, u.ID)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsEmailVerified)
	assert.Regexp(t, `^JD[A-Z0-9]{6}$`, u.ReferralCode)
	assert.NotEqual(t, "Sup3r!secret", u.Password)

	claims, err := f.svc.JWT.Verify(pair.AccessToken, helpers.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	claims, err = f.svc.JWT.Verify(pair.RefreshToken, helpers.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// refresh token persisted and a verification OTP cached
	assert.Equal(t, 1, f.tokens.countForUser(u.ID))
	assert.Len(t, f.cachedOTP(t, PurposeEmail, u.ID), 6)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "jane@example.com", "+15550100")

	_, _, err := f.svc.Register(ctx, RegisterInput{
		Email: "jane@example.com", Password: "Sup3r!secret",
		FirstName: "J", LastName: "D", Role: entity.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, _, err = f.svc.Register(ctx, RegisterInput{
		Email: "other@example.com", Password: "Sup3r!secret", Phone: "+15550100",
		FirstName: "J", LastName: "D", Role: entity.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrUserExists, "duplicate phone must conflict too")
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Email: "jane@example.com", Password: "abc",
		FirstName: "J", LastName: "D", Role: entity.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")

	got, pair, err := f.svc.Login(ctx, "jane@example.com", "Sup3r!secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLoginAt)
	assert.NotEmpty(t, pair.AccessToken)

	// register + login = two live refresh tokens
	assert.Equal(t, 2, f.tokens.countForUser(u.ID))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "jane@example.com", "")

	_, _, errWrongPassword := f.svc.Login(ctx, "jane@example.com", "wrong-password")
	_, _, errUnknownEmail := f.svc.Login(ctx, "nobody@example.com", "Sup3r!secret")

	// identical error for both, so logins cannot probe which emails exist
	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLoginDeactivated(t *testing.T) {
	f := newAuthFixture(t)
	u, _ := f.register(t, "jane@example.com", "")
	f.users.deactivate(u.ID)

	_, _, err := f.svc.Login(context.Background(), "jane@example.com", "Sup3r!secret")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestVerifyEmailSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")
	code := f.cachedOTP(t, PurposeEmail, u.ID)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, u.ID, "000000"), ErrInvalidOTP)

	require.NoError(t, f.svc.VerifyEmail(ctx, u.ID, code))
	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, u.ID, code), ErrInvalidOTP, "OTP is single use")
}

func TestVerifyOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")
	code := f.cachedOTP(t, PurposeEmail, u.ID)

	_, err := f.svc.VerifyOTP(ctx, "nobody@example.com", code, PurposeEmail)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.VerifyOTP(ctx, "jane@example.com", "000000", PurposeEmail)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	id, err := f.svc.VerifyOTP(ctx, "jane@example.com", code, PurposeEmail)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = f.svc.VerifyOTP(ctx, "jane@example.com", code, PurposeEmail)
	assert.ErrorIs(t, err, ErrInvalidOTP, "OTP is single use")
}

func TestResendOTPOverwrites(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")
	first := f.cachedOTP(t, PurposeEmail, u.ID)

	require.NoError(t, f.svc.ResendOTP(ctx, u.ID))
	second := f.cachedOTP(t, PurposeEmail, u.ID)

	if first != second {
		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, u.ID, first), ErrInvalidOTP,
			"previous OTP must be invalid after resend")
	}
	require.NoError(t, f.svc.VerifyEmail(ctx, u.ID, second))

	assert.NoError(t, f.svc.ResendOTP(ctx, "no-such-user"), "unknown user id is not an error")
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, pair := f.register(t, "jane@example.com", "")

	access, exp, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	claims, err := f.svc.JWT.Verify(access, helpers.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// valid signature but no stored row
	stray, _, err := f.svc.JWT.Generate(u.ID, helpers.TokenRefresh)
	require.NoError(t, err)
	_, _, err = f.svc.Refresh(ctx, stray)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// valid signature but stored row expired
	f.tokens.expire(pair.RefreshToken)
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, _, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// an access token is not a refresh token
	_, _, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, pair := f.register(t, "jane@example.com", "")

	require.NoError(t, f.svc.Logout(ctx, u.ID, pair.AccessToken))

	assert.Equal(t, 0, f.tokens.countForUser(u.ID))
	assert.True(t, f.svc.IsBlacklisted(ctx, pair.AccessToken))
	assert.False(t, f.svc.IsBlacklisted(ctx, "some-other-token"))

	_, _, err := f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh, "logout revokes refresh tokens")
}

func TestForgotPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")

	assert.NoError(t, f.svc.ForgotPassword(ctx, "nobody@example.com"),
		"unknown email must not be distinguishable")

	require.NoError(t, f.svc.ForgotPassword(ctx, "jane@example.com"))
	assert.Len(t, f.cachedOTP(t, PurposePasswordReset, u.ID), 6)
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")
	require.NoError(t, f.svc.ForgotPassword(ctx, "jane@example.com"))
	code := f.cachedOTP(t, PurposePasswordReset, u.ID)

	err := f.svc.ResetPassword(ctx, "nobody@example.com", code, "N3w!passwd")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = f.svc.ResetPassword(ctx, "jane@example.com", "000000", "N3w!passwd")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// a weak replacement password must not burn the OTP
	err = f.svc.ResetPassword(ctx, "jane@example.com", code, "weak")
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.Equal(t, code, f.cachedOTP(t, PurposePasswordReset, u.ID))

	require.NoError(t, f.svc.ResetPassword(ctx, "jane@example.com", code, "N3w!passwd"))

	// OTP consumed, sessions revoked, new password works
	err = f.svc.ResetPassword(ctx, "jane@example.com", code, "N3w!passwd")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, 0, f.tokens.countForUser(u.ID))
	_, _, err = f.svc.Login(ctx, "jane@example.com", "N3w!passwd")
	assert.NoError(t, err)
	_, _, err = f.svc.Login(ctx, "jane@example.com", "Sup3r!secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "jane@example.com", "")

	err := f.svc.ChangePassword(ctx, u.ID, "wrong-old", "N3w!passwd")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.svc.ChangePassword(ctx, u.ID, "Sup3r!secret", "weak")
	assert.ErrorIs(t, err, ErrWeakPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "Sup3r!secret", "N3w!passwd"))
	assert.Equal(t, 0, f.tokens.countForUser(u.ID), "change password revokes sessions")
	_, _, err = f.svc.Login(ctx, "jane@example.com", "N3w!passwd")
	assert.NoError(t, err)
}

func TestSanitizedUser(t *testing.T) {
	f := newAuthFixture(t)
	u, _ := f.register(t, "jane@example.com", "")

	pub := u.Sanitized()
	assert.Equal(t, u.Email, pub.Email)
	assert.Equal(t, u.ReferralCode, pub.ReferralCode)
}
