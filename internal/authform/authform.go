// Package authform holds the login and registration forms shown before a
// session exists.
package authform

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/session"
)

// StudentEmailDomain is required for student accounts.
const StudentEmailDomain = "@ufl.edu"

var (
	ErrMissingFields     = errors.New("required fields are missing")
	ErrStudentEmail      = errors.New("student email must end in " + StudentEmailDomain)
	ErrPasswordsMismatch = errors.New("passwords do not match")
)

// Message returns the text shown to the user for a form validation error.
// ok is false for errors that did not come from form validation.
func Message(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Please fill in all required fields", true
	case errors.Is(err, ErrStudentEmail):
		return "Please use a valid UF email address (" + StudentEmailDomain + ")", true
	case errors.Is(err, ErrPasswordsMismatch):
		return "Passwords do not match", true
	}
	return "", false
}

// Backend is the part of the API the forms use.
type Backend interface {
	Login(ctx context.Context, role domain.Role, creds domain.Credentials) (*domain.LoginResult, error)
	Register(ctx context.Context, role domain.Role, reg domain.Registration) (*domain.RegisterResult, error)
}

// RegisterInput is the raw registration form. Interests is comma separated.
type RegisterInput struct {
	Role        domain.Role
	Name        string
	Email       string
	Password    string
	Confirm     string
	Description string
	Interests   string
}

// Forms submits login and registration requests.
type Forms struct {
	backend  Backend
	sessions *session.Store
	log      zerolog.Logger
}

// New returns forms that store the session in sessions on login.
func New(backend Backend, sessions *session.Store, log zerolog.Logger) *Forms {
	return &Forms{
		backend:  backend,
		sessions: sessions,
		log:      log.With().Str("component", "authform").Logger(),
	}
}

// Login authenticates and stores the resulting session.
func (f *Forms) Login(ctx context.Context, role domain.Role, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.Session{}, ErrMissingFields
	}
	res, err := f.backend.Login(ctx, role, domain.Credentials{Email: email, Password: password})
	if err != nil {
		f.log.Info().Err(err).Str("role", role.String()).Msg("login failed")
		return session.Session{}, err
	}
	sess := session.Session{
		Actor: domain.Actor{ID: res.ID, Role: role},
		Email: email,
		Token: res.Token,
	}
	f.sessions.Set(sess)
	f.log.Info().Int64("id", res.ID).Str("role", role.String()).Msg("logged in")
	return sess, nil
}

// Logout forgets the session.
func (f *Forms) Logout() {
	f.sessions.Clear()
}

// ParseInterests splits a comma separated list, dropping blank entries.
func ParseInterests(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate runs the checks made before anything is sent.
func (in RegisterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "", strings.TrimSpace(in.Email) == "", in.Password == "":
		return ErrMissingFields
	case in.Role == domain.RoleStudent && !strings.HasSuffix(strings.TrimSpace(in.Email), StudentEmailDomain):
		return ErrStudentEmail
	case in.Password != in.Confirm:
		return ErrPasswordsMismatch
	}
	return nil
}

// Registration converts the form into the request body.
func (in RegisterInput) Registration() domain.Registration {
	reg := domain.Registration{
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
		Name:      strings.TrimSpace(in.Name),
		Interests: ParseInterests(in.Interests),
	}
	if in.Role == domain.RoleClub {
		reg.Description = strings.TrimSpace(in.Description)
	}
	return reg
}

// Register validates the form and creates the account. It does not log in.
func (f *Forms) Register(ctx context.Context, in RegisterInput) (*domain.RegisterResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := f.backend.Register(ctx, in.Role, in.Registration())
	if err != nil {
		f.log.Info().Err(err).Str("role", in.Role.String()).Msg("registration failed")
		return nil, err
	}
	return res, nil
}
