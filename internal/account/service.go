package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dummyshop/storefront/internal/audit"
	"dummyshop/storefront/internal/domain"
	"dummyshop/storefront/internal/dummyjson"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrUsernameTaken    = errors.New("username already taken")
)

type Remote interface {
	Login(ctx context.Context, creds dummyjson.Credentials) (domain.User, error)
	AddUser(ctx context.Context, u dummyjson.NewUser) (domain.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type Session interface {
	Login(ctx context.Context, u domain.User) error
	Logout(ctx context.Context) error
	User() (domain.User, bool)
}

type Recorder interface {
	Record(e audit.Event) error
}

type RegisterInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (in RegisterInput) normalize() RegisterInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	return in
}

func (in RegisterInput) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"username", in.Username},
		{"password", in.Password},
		{"confirmPassword", in.ConfirmPassword},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

type Service struct {
	remote  Remote
	session Session
	audit   Recorder
	log     *zap.Logger
}

func NewService(remote Remote, session Session, rec Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{remote: remote, session: session, audit: rec, log: log}
}

// Login authenticates against the remote API and stores the returned user.
// A failed attempt leaves the current session untouched.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password", ErrMissingFields)
	}

	u, err := s.remote.Login(ctx, dummyjson.Credentials{Username: username, Password: password})
	if err != nil {
		s.record(ctx, audit.ActionLogin, username, "", audit.OutcomeFailed, err)
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.session.Login(ctx, u); err != nil {
		s.record(ctx, audit.ActionLogin, username, userTarget(u), audit.OutcomeFailed, err)
		return domain.User{}, err
	}
	s.record(ctx, audit.ActionLogin, username, userTarget(u), audit.OutcomeSuccess, nil)
	return u, nil
}

// Register creates the remote user and logs straight in as it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return domain.User{}, err
	}

	taken, err := s.remote.UsernameTaken(ctx, in.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		s.record(ctx, audit.ActionRegister, in.Username, "", audit.OutcomeFailed, ErrUsernameTaken)
		return domain.User{}, ErrUsernameTaken
	}

	u, err := s.remote.AddUser(ctx, dummyjson.NewUser{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Password:  in.Password,
	})
	if err != nil {
		s.record(ctx, audit.ActionRegister, in.Username, "", audit.OutcomeFailed, err)
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	if err := s.session.Login(ctx, u); err != nil {
		s.record(ctx, audit.ActionRegister, in.Username, userTarget(u), audit.OutcomeFailed, err)
		return domain.User{}, err
	}
	s.record(ctx, audit.ActionRegister, in.Username, userTarget(u), audit.OutcomeSuccess, nil)
	return u, nil
}

func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("%w: username", ErrMissingFields)
	}
	taken, err := s.remote.UsernameTaken(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

func (s *Service) Logout(ctx context.Context) error {
	u, wasIn := s.session.User()
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	if wasIn {
		s.record(ctx, audit.ActionLogout, u.Username, userTarget(u), audit.OutcomeSuccess, nil)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, actor, target, outcome string, cause error) {
	e := audit.Event{Actor: actor, Action: action, Target: target, Outcome: outcome}.For(ctx)
	if cause != nil {
		e.Detail = cause.Error()
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(e); err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func userTarget(u domain.User) string {
	if u.ID <= 0 {
		return ""
	}
	return "user:" + strconv.Itoa(u.ID)
}
