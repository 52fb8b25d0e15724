package service

import (
	"context"
	"strconv"
	"time"

	"bistro/domain/user"
	"bistro/metrics"
	"bistro/session"

	"go.uber.org/zap"
)

// Directory looks up staff credentials.
type Directory interface {
	Lookup(userID string) (user.User, bool)
}

const msgInvalidCredentials = "Invalid credentials"

// decoySource is implemented by directories that supply the credential
// unknown user ids are checked against.
type decoySource interface {
	Decoy() user.User
}

type AuthService struct {
	users    Directory
	decoy    user.User
	verify   func(u user.User, password string) bool
	sessions *session.Registry
	throttle *Throttle
	metrics  *metrics.Metrics
	log      *zap.Logger
}

type AuthOption func(*AuthService)

// WithThrottle enables the failed-login cooldown.
func WithThrottle(t *Throttle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

func WithAuthMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

func WithAuthLogger(log *zap.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(users Directory, sessions *session.Registry, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		verify:   user.User.CheckPassword,
		log:      zap.NewNop(),
	}
	if d, ok := users.(decoySource); ok {
		s.decoy = d.Decoy()
	} else {
		s.decoy = user.DefaultDecoy()
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Authenticate checks userID and password and opens a session. Unknown
// users and wrong passwords fail with the same message, and an unknown
// user is still checked against the directory's decoy credential so both
// failures cost the same.
func (s *AuthService) Authenticate(ctx context.Context, userID, password string) (session.Session, error) {
	if s.throttle != nil {
		if wait := s.throttle.Begin(userID); wait > 0 {
			s.metrics.Login(metrics.LoginThrottled)
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			return session.Session{}, &Error{
				Kind: KindThrottled,
				Msg:  "Too many failed attempts, retry in " + strconv.Itoa(secs) + "s",
			}
		}
	}

	u, ok := s.users.Lookup(userID)
	if !ok {
		u = s.decoy
	}
	if match := s.verify(u, password); !ok || !match {
		if s.throttle != nil {
			cooldown := s.throttle.Failed(userID)
			s.log.Info("login rejected", zap.String("user", userID), zap.Duration("cooldown", cooldown))
		} else {
			s.log.Info("login rejected", zap.String("user", userID))
		}
		s.metrics.Login(metrics.LoginRejected)
		return session.Session{}, newError(KindUnauthenticated, msgInvalidCredentials)
	}

	if s.throttle != nil {
		s.throttle.Succeeded(userID)
	}
	sess := s.sessions.Issue(u.ID, u.Role)
	s.metrics.Login(metrics.LoginOK)
	s.log.Info("login", zap.String("user", u.ID), zap.Stringer("role", u.Role))
	return sess, nil
}

// Logout ends the session for token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) {
	s.sessions.Revoke(token)
}

// Role resolves the role of the session on ctx.
func (s *AuthService) Role(ctx context.Context) (user.Role, bool) {
	return s.sessions.Resolve(TokenFrom(ctx))
}
