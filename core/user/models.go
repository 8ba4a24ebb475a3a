package user

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/annourmah/etudia/core"
)

// User is a credential record. Email is the unique key; uniqueness is
// enforced by a pre-check at registration time, not by the storage layer.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash []byte    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Public strips the credential material for session storage and API output.
func (u User) Public() User {
	u.PasswordHash = nil
	return u
}

type userAlias struct {
	ID           interface{} `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	Nom          string      `json:"nom"` // legacy display-name fields
	LastName     string      `json:"lastName"`
	Prenom       string      `json:"prenom"`
	PasswordHash []byte      `json:"passwordHash"`
	Password     string      `json:"password"` // legacy plaintext records
	CreatedAt    time.Time   `json:"createdAt"`
}

// UnmarshalJSON migrates legacy records on load: nom/prenom display-name
// aliases collapse into the canonical fields, and a plaintext password is
// hashed so it never survives the next save.
func (u *User) UnmarshalJSON(data []byte) error {
	var alias userAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	switch id := alias.ID.(type) {
	case float64:
		u.ID = int64(id)
	}
	u.Email = strings.ToLower(strings.TrimSpace(alias.Email))
	u.FirstName = alias.FirstName
	if u.FirstName == "" {
		u.FirstName = alias.Nom
	}
	u.LastName = alias.LastName
	if u.LastName == "" {
		u.LastName = alias.Prenom
	}
	u.PasswordHash = alias.PasswordHash
	u.CreatedAt = alias.CreatedAt

	if len(u.PasswordHash) == 0 && alias.Password != "" {
		if err := u.SetPassword(alias.Password); err != nil {
			return err
		}
	}
	return nil
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	return validate.Struct(nu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}
