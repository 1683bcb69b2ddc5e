package application

import (
	"context"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shresth2708/edu-api/internal/domain/entity"
	"github.com/shresth2708/edu-api/internal/domain/repository"
	"github.com/shresth2708/edu-api/pkg/apperr"
	"github.com/shresth2708/edu-api/pkg/cache"
	"github.com/shresth2708/edu-api/pkg/helpers"
	"github.com/shresth2708/edu-api/pkg/mailer"
)

// Domain errors. InvalidCredentials is deliberately identical for "no such
// user" and "wrong password" so logins cannot be used to enumerate emails;
// InvalidOTP is likewise identical for "missing" and "mismatched".
var (
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrAccountDeactivated = apperr.Forbidden("Account is deactivated. Please contact support.")
	ErrUserExists         = apperr.Conflict("User with this email or phone already exists")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInvalidOTP         = apperr.BadRequest("Invalid or expired OTP")
	ErrInvalidRefresh     = apperr.Unauthorized("Invalid or expired refresh token")
	ErrWeakPassword       = apperr.BadRequest("Password does not meet requirements")
	ErrWrongPassword      = apperr.BadRequest("Current password is incorrect")
)

// OTP purposes; the cache key is "<purpose>_otp:<userId>".
const (
	PurposeEmail         = "email"
	PurposePasswordReset = "password_reset"
)

const (
	otpTTL       = 10 * time.Minute
	blacklistTTL = 24 * time.Hour // upper bound on access token lifetime
)

// AuthService orchestrates the credential helpers, the user/token store and
// the cache gateway to implement the auth flows.
type AuthService struct {
	Users  repository.UserRepository
	Tokens repository.RefreshTokenRepository
	Cache  cache.Store
	JWT    *helpers.JWTManager
	Logger *logrus.Logger

	// Optional collaborators; flows degrade gracefully without them.
	Pub          *helpers.RabbitPublisher
	MailEnabled  bool
	ES           *elasticsearch.Client
	ESUsersIndex string
}

type TokenPair struct {
	AccessToken        string    `json:"accessToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken       string    `json:"refreshToken"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiresAt"`
}

type RegisterInput struct {
	Email     string
	Password  string
	Phone     string
	FirstName string
	LastName  string
	Role      entity.Role
}

// Register creates the user, its role profile and the first refresh token in
// one transaction, then caches an email verification OTP and enqueues its
// delivery.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	if res := helpers.ValidatePasswordStrength(in.Password); !res.IsValid {
		return nil, TokenPair{}, ErrWeakPassword.WithDetails(res.Errors)
	}

	exists, err := s.Users.ExistsByEmailOrPhone(ctx, in.Email, in.Phone)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if exists {
		return nil, TokenPair{}, ErrUserExists
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	referral, err := helpers.GenReferralCode(in.FirstName, in.LastName)
	if err != nil {
		return nil, TokenPair{}, err
	}

	// The id is minted here rather than by the database so the token claims
	// can reference it before the insert.
	u := &entity.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Phone:        in.Phone,
		Password:     hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		ReferralCode: referral,
	}

	pair, rt, err := s.mintTokens(u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	if err := s.Users.Register(ctx, u, rt); err != nil {
		// The existence pre-check races with concurrent registrations; the
		// unique constraints are the source of truth.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, TokenPair{}, ErrUserExists
		}
		return nil, TokenPair{}, err
	}

	s.issueOTP(ctx, u, PurposeEmail, mailer.TemplateVerifyEmail)
	indexUser(ctx, s.ES, s.ESUsersIndex, s.Logger, u)

	return u, pair, nil
}

// Login authenticates and issues a fresh token pair, persisting the refresh
// token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrAccountDeactivated
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if err := s.Users.UpdateLastLogin(ctx, u.ID); err != nil {
		return nil, TokenPair{}, err
	}
	now := time.Now()
	u.LastLoginAt = &now

	pair, rt, err := s.mintTokens(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.Tokens.Create(ctx, rt); err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout deletes every refresh token for the user (all sessions, not just
// the current one) and blacklists the presented access token until its
// latest possible natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken string) error {
	if err := s.Tokens.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if accessToken != "" {
		s.Cache.Set(ctx, helpers.BlacklistKey(accessToken), true, blacklistTTL)
	}
	return nil
}

// Refresh redeems a refresh token for a new access token. The refresh token
// itself is not rotated. It must carry a valid signature AND still exist,
// unexpired, in the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.JWT.Verify(refreshToken, helpers.TokenRefresh)
	if err != nil {
		return "", time.Time{}, ErrInvalidRefresh
	}
	stored, err := s.Tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, ErrInvalidRefresh
		}
		return "", time.Time{}, err
	}
	if stored.Expired(time.Now()) {
		return "", time.Time{}, ErrInvalidRefresh
	}

	access, exp, err := s.JWT.Generate(claims.UserID, helpers.TokenAccess)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, exp, nil
}

// VerifyEmail consumes the cached email OTP (single use) and marks the
// user's email verified.
func (s *AuthService) VerifyEmail(ctx context.Context, userID, otp string) error {
	if !s.Cache.TakeOnce(ctx, helpers.OTPKey(PurposeEmail, userID), otp) {
		return ErrInvalidOTP
	}
	return s.Users.SetEmailVerified(ctx, userID)
}

// VerifyOTP is the generic, unauthenticated OTP check used by multi-step
// flows. On success the OTP is consumed and the owning user id is returned.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp, purpose string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if !s.Cache.TakeOnce(ctx, helpers.OTPKey(purpose, u.ID), otp) {
		return "", ErrInvalidOTP
	}
	return u.ID, nil
}

// ResendOTP regenerates the email verification OTP, overwriting any previous
// one. It succeeds unconditionally from the caller's point of view.
func (s *AuthService) ResendOTP(ctx context.Context, userID string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil
	}
	s.issueOTP(ctx, u, PurposeEmail, mailer.TemplateVerifyEmail)
	return nil
}

// ForgotPassword caches a password reset OTP for the account, if it exists.
// The outcome is indistinguishable either way to prevent enumeration.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	s.issueOTP(ctx, u, PurposePasswordReset, mailer.TemplatePasswordReset)
	return nil
}

// ResetPassword verifies the reset OTP and replaces the password. The OTP is
// peeked first and only consumed after the password actually changes, so a
// weak replacement password does not burn it. All refresh tokens for the
// user are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	key := helpers.OTPKey(PurposePasswordReset, u.ID)
	var cached string
	if !s.Cache.Get(ctx, key, &cached) || cached != otp {
		return ErrInvalidOTP
	}

	if res := helpers.ValidatePasswordStrength(newPassword); !res.IsValid {
		return ErrWeakPassword.WithDetails(res.Errors)
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	s.Cache.Del(ctx, key)

	return s.Tokens.DeleteByUser(ctx, u.ID)
}

// ChangePassword replaces the password for an authenticated user after
// re-verifying the old one, and revokes all refresh tokens.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return ErrWrongPassword
	}
	if res := helpers.ValidatePasswordStrength(newPassword); !res.IsValid {
		return ErrWeakPassword.WithDetails(res.Errors)
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.Tokens.DeleteByUser(ctx, userID)
}

// CurrentUser loads the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// IsBlacklisted reports whether an access token was revoked by logout.
func (s *AuthService) IsBlacklisted(ctx context.Context, accessToken string) bool {
	var marked bool
	return s.Cache.Get(ctx, helpers.BlacklistKey(accessToken), &marked) && marked
}

func (s *AuthService) mintTokens(u *entity.User) (TokenPair, *entity.RefreshToken, error) {
	access, aexp, err := s.JWT.Generate(u.ID, helpers.TokenAccess)
	if err != nil {
		return TokenPair{}, nil, err
	}
	refresh, rexp, err := s.JWT.Generate(u.ID, helpers.TokenRefresh)
	if err != nil {
		return TokenPair{}, nil, err
	}
	rt := &entity.RefreshToken{UserID: u.ID, Token: refresh, ExpiresAt: rexp}
	pair := TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}
	return pair, rt, nil
}

// issueOTP generates a code, caches it under the purpose key (overwriting
// any previous one) and enqueues delivery. Cache or queue failures are
// logged, never surfaced: the code can always be resent.
func (s *AuthService) issueOTP(ctx context.Context, u *entity.User, purpose, template string) {
	code, err := helpers.GenOTPCode()
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Error("otp generation failed")
		}
		return
	}
	s.Cache.Set(ctx, helpers.OTPKey(purpose, u.ID), code, otpTTL)

	if s.Pub == nil || !s.MailEnabled {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "purpose": purpose}).
				Debugf("OTP for %s: %s", u.Email, code)
		}
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data:     map[string]any{"Name": u.FirstName, "Code": code},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("email enqueue failed")
	}
}
