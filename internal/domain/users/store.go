package users

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitrina/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
	Activate(ctx context.Context, token string) error
	Delete(ctx context.Context, userID int64) error
	UpdateProfile(ctx context.Context, userID int64, updates map[string]interface{}) error
	SetLogo(ctx context.Context, userID int64, url string) error
	GetLogoURL(ctx context.Context, userID int64) (*string, error)
	UpdatePassword(ctx context.Context, user *User) error
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	UpdateResetToken(ctx context.Context, email, resetToken string, expires time.Time) error
	GetByResetToken(ctx context.Context, resetToken string) (*User, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Store {
	return &Repository{db: pool}
}

// mapConstraintErr translates unique-violation errors on the profiles
// table into the sentinel the handlers key off.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrDuplicateUsername
		}
	}
	return err
}

func (r *Repository) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
		INSERT INTO profiles (username, email, full_name, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := tx.QueryRow(ctx, query, user.Username, user.Email, user.FullName, user.Password.hash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

// CreateAndInvite inserts the profile and its activation token in one
// transaction so an invite never points at a missing user.
func (r *Repository) CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error {
	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if err := r.create(ctx, tx, user); err != nil {
			return err
		}
		return r.createUserInvitation(ctx, tx, token, invitationExp, user.ID)
	})
}

func (r *Repository) createUserInvitation(ctx context.Context, tx pgx.Tx, token string, exp time.Duration, userID int64) error {
	query := `INSERT INTO user_invitations (token, user_id, expiry) VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := tx.Exec(ctx, query, token, userID, time.Now().Add(exp))
	return err
}

// Activate flips the profile active by its invitation token. Re-sending
// an already used token succeeds without touching anything.
func (r *Repository) Activate(ctx context.Context, token string) error {
	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		user, err := r.getUserFromInvitation(ctx, tx, token)
		if err != nil {
			return err
		}

		if user.IsActive {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		_, err = tx.Exec(ctx, `UPDATE profiles SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, user.ID)
		return err
	})
}

func (r *Repository) getUserFromInvitation(ctx context.Context, tx pgx.Tx, token string) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.is_active, u.created_at
		FROM profiles u
		JOIN user_invitations ui ON u.id = ui.user_id
		WHERE ui.token = $1 AND ui.expiry > $2
	`

	hash := sha256.Sum256([]byte(token))
	hashToken := hex.EncodeToString(hash[:])

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := tx.QueryRow(ctx, query, hashToken, time.Now()).
		Scan(&user.ID, &user.Username, &user.Email, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, username, email, full_name, bio, logo_url, password, is_active, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Bio,
		&user.LogoURL,
		&user.Password.hash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, full_name, password, is_active, created_at
		FROM profiles
		WHERE email = $1 AND is_active = true
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Password.hash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, email, full_name, bio, logo_url, is_active, created_at, updated_at
		FROM profiles
		WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Bio,
		&user.LogoURL,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *Repository) Delete(ctx context.Context, userID int64) error {
	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// profileFields is the allow-list for UpdateProfile's dynamic SET clause.
var profileFields = map[string]bool{
	"full_name": true,
	"bio":       true,
	"username":  true,
}

func (r *Repository) UpdateProfile(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	i := 1
	for field, value := range updates {
		if !profileFields[field] {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i))
		args = append(args, value)
		i++
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE profiles SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), i)

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (r *Repository) SetLogo(ctx context.Context, userID int64, url string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE profiles SET logo_url = $1, updated_at = NOW() WHERE id = $2`, url, userID)
	return err
}

func (r *Repository) GetLogoURL(ctx context.Context, userID int64) (*string, error) {
	var url *string
	err := r.db.QueryRow(ctx, `SELECT logo_url FROM profiles WHERE id = $1`, userID).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get logo url: %w", err)
	}
	return url, nil
}

// UpdatePassword persists a freshly Set password hash and clears any
// outstanding reset token.
func (r *Repository) UpdatePassword(ctx context.Context, user *User) error {
	query := `
		UPDATE profiles
		SET password = $1, reset_password_token = '', reset_password_expires = NULL, updated_at = NOW()
		WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, query, user.Password.hash, user.ID)
	return err
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE profiles SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE profiles SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var refreshToken string
	err := r.db.QueryRow(ctx,
		`SELECT refresh_token FROM profiles WHERE id = $1 AND refresh_token IS NOT NULL`, userID).
		Scan(&refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("no refresh token found for user %d", userID)
		}
		return "", fmt.Errorf("retrieve refresh token: %w", err)
	}
	return refreshToken, nil
}

func (r *Repository) UpdateResetToken(ctx context.Context, email, resetToken string, expires time.Time) error {
	query := `
		UPDATE profiles
		SET reset_password_token = $1, reset_password_expires = $2
		WHERE email = $3
	`
	_, err := r.db.Exec(ctx, query, resetToken, expires, email)
	return err
}

func (r *Repository) GetByResetToken(ctx context.Context, resetToken string) (*User, error) {
	query := `
		SELECT id, username, email, password, reset_password_token, reset_password_expires, created_at, updated_at
		FROM profiles
		WHERE reset_password_token = $1 AND reset_password_expires > NOW()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := r.db.QueryRow(ctx, query, resetToken).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password.hash,
		&user.ResetPasswordToken,
		&user.ResetPasswordExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
