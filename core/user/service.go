package user

import (
	"errors"
	"fmt"
	"net/mail"
	"sync"

	"github.com/annourmah/etudia/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired reset link")
)

// DefaultAdmin is seeded whenever the user collection is empty so the app
// is never unreachable.
var DefaultAdmin = struct {
	Email, Password, FirstName, LastName string
}{
	Email:     "admin@school.com",
	Password:  "admin123",
	FirstName: "Admin",
	LastName:  "Admin",
}

type (
	// Repository mirrors the in-memory user collection to the key-value store.
	Repository interface {
		LoadUsers() ([]User, error)
		SaveUsers([]User) error
	}

	Service struct {
		mu    sync.RWMutex
		users []User

		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config

		lastID int64
	}
)

// NewService loads the user collection, migrating legacy records on the way
// in, and seeds the default administrator when the collection is empty.
func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger) (*Service, error) {
	users, err := repo.LoadUsers()
	if err != nil {
		return nil, err
	}

	svc := &Service{
		users:   users,
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
	for _, usr := range users {
		if usr.ID > svc.lastID {
			svc.lastID = usr.ID
		}
	}

	if len(svc.users) == 0 {
		if err = svc.seedAdmin(); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func (svc *Service) seedAdmin() error {
	admin := User{
		Email:     DefaultAdmin.Email,
		FirstName: DefaultAdmin.FirstName,
		LastName:  DefaultAdmin.LastName,
		CreatedAt: nowFunc().UTC(),
	}
	if err := admin.SetPassword(DefaultAdmin.Password); err != nil {
		return err
	}
	admin.ID = svc.nextID()
	svc.users = append(svc.users, admin)
	return svc.repo.SaveUsers(svc.users)
}

// nextID derives an identifier from the creation time, bumped past the last
// issued one. Callers must hold the lock (or be in the constructor).
func (svc *Service) nextID() int64 {
	id := nowFunc().UnixMilli()
	if id <= svc.lastID {
		id = svc.lastID + 1
	}
	svc.lastID = id
	return id
}

// Register creates a User after checking email uniqueness.
func (svc *Service) Register(nu NewUser) (User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, usr := range svc.users {
		if usr.Email == nu.Email {
			return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
	}

	usr := User{
		ID:        svc.nextID(),
		Email:     nu.Email,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		CreatedAt: nowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	svc.users = append(svc.users, usr)
	if err := svc.repo.SaveUsers(svc.users); err != nil {
		return User{}, err
	}
	return usr.Public(), nil
}

// Authenticate checks the credentials and returns the matching User with
// credential material stripped.
func (svc *Service) Authenticate(email, pwd string) (User, error) {
	email = core.CleanString(email, true /* lower */)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	for _, usr := range svc.users {
		if usr.Email == email {
			if err := usr.CheckPassword(pwd); err != nil {
				return User{}, ErrInvalidCredentials
			}
			return usr.Public(), nil
		}
	}
	return User{}, ErrInvalidCredentials
}

func (svc *Service) GetByEmail(email string) (User, error) {
	email = core.CleanString(email, true /* lower */)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	for _, usr := range svc.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (svc *Service) QueryAll() []User {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]User, 0, len(svc.users))
	for _, usr := range svc.users {
		out = append(out, usr.Public())
	}
	return out
}

// RequestPasswordReset issues a reset token and emails the reset link.
// Returns ErrNotFound for unknown emails; callers decide whether to hide it.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}

	token, err := makeResetToken(usr, []byte(svc.conf.SecretKey), svc.conf.Server.PasswordResetTimeoutDelta)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/%s", svc.conf.FrontendBaseURL, token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:     "Réinitialisation de mot de passe",
		TextContent: fmt.Sprintf("Cliquez sur ce lien pour réinitialiser votre mot de passe :\n%s", link),
		HTMLContent: fmt.Sprintf(`<p>Cliquez sur ce lien pour réinitialiser votre mot de passe :</p><a href="%s">%s</a>`, link, link),
	})
	return nil
}

// ResetPassword verifies the reset token and replaces the password of the
// user carried in its email claim.
func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	email, err := verifyResetToken(rp.Token, []byte(svc.conf.SecretKey))
	if err != nil {
		return ErrInvalidToken
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i := range svc.users {
		if svc.users[i].Email == email {
			if err = svc.users[i].SetPassword(rp.Password); err != nil {
				return err
			}
			return svc.repo.SaveUsers(svc.users)
		}
	}
	return ErrNotFound
}

// SetPassword force-sets a user's password; used by the admin CLI.
func (svc *Service) SetPassword(email, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i := range svc.users {
		if svc.users[i].Email == email {
			if err := svc.users[i].SetPassword(pwd); err != nil {
				return err
			}
			return svc.repo.SaveUsers(svc.users)
		}
	}
	return ErrNotFound
}
