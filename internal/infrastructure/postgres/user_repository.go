package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shresth2708/edu-api/internal/domain/entity"
	"github.com/shresth2708/edu-api/internal/domain/repository"
)

const userColumns = `id, email, COALESCE(phone, ''), password_hash, first_name, last_name,
	role, avatar_url, is_active, is_email_verified, referral_code,
	COALESCE(two_factor_secret, ''), last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Register inserts the user, its role profile and the initial refresh token
// in a single transaction.
func (r *UserRepository) Register(ctx context.Context, u *entity.User, rt *entity.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, email, phone, password_hash, first_name, last_name, role, referral_code)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.Phone, u.Password, u.FirstName, u.LastName, u.Role, u.ReferralCode)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapErr(err)
	}
	u.IsActive = true

	table, ok := profileTable(u.Role)
	if ok {
		if _, err := tx.Exec(ctx, `INSERT INTO `+table+` (user_id) VALUES ($1)`, u.ID); err != nil {
			return mapErr(err)
		}
	}

	if rt != nil {
		rt.UserID = u.ID
		row = tx.QueryRow(ctx, `
			INSERT INTO refresh_tokens (user_id, token, expires_at)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, rt.UserID, rt.Token, rt.ExpiresAt)
		if err := row.Scan(&rt.ID, &rt.CreatedAt); err != nil {
			return mapErr(err)
		}
	}

	return tx.Commit(ctx)
}

func profileTable(role entity.Role) (string, bool) {
	switch role {
	case entity.RoleStudent:
		return "student_profiles", true
	case entity.RoleTeacher:
		return "teacher_profiles", true
	case entity.RoleParent:
		return "parent_profiles", true
	default:
		return "", false
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.Password, &u.FirstName, &u.LastName,
		&u.Role, &u.AvatarURL, &u.IsActive, &u.IsEmailVerified, &u.ReferralCode,
		&u.TwoFactorSecret, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE email = $1 OR ($2 <> '' AND phone = $2)
		)
	`, email, phone).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, avatar_url = $3, updated_at = $4
		WHERE id = $5
	`, u.FirstName, u.LastName, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET is_email_verified = TRUE, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
