package users

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrDuplicateUsername = errors.New("that username is already taken")
	QueryTimeoutDuration = time.Second * 5
)

// User is a merchant account. The username doubles as the first path
// segment of their public storefront URLs.
type User struct {
	ID                   int64     `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	FullName             *string   `json:"full_name,omitempty"`
	Bio                  *string   `json:"bio,omitempty"`
	LogoURL              *string   `json:"logo_url,omitempty"`
	Password             password  `json:"-"`
	RefreshToken         string    `json:"-"`
	IsActive             bool      `json:"is_active"`
	ResetPasswordToken   string    `json:"-"`
	ResetPasswordExpires time.Time `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// password keeps the plaintext (when freshly set) and the bcrypt hash
// together while hiding both from JSON.
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}
