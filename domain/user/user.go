package user

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is the closed set of staff roles.
type Role int

const (
	RoleUnspecified Role = iota
	RoleManager
	RoleServer
)

// ErrUnknownRole is returned when a role name is not one of the known roles.
var ErrUnknownRole = errors.New("unknown role")

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "MANAGER"
	case RoleServer:
		return "SERVER"
	case RoleUnspecified:
		return "ROLE_UNSPECIFIED"
	default:
		return "ROLE_UNSPECIFIED"
	}
}

// ParseRole maps a role name onto a Role. Unknown names are an error rather
// than RoleUnspecified.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANAGER":
		return RoleManager, nil
	case "SERVER":
		return RoleServer, nil
	case "ROLE_UNSPECIFIED", "UNSPECIFIED":
		return RoleUnspecified, nil
	default:
		return RoleUnspecified, errors.Wrapf(ErrUnknownRole, "%q", s)
	}
}

// User is a staff member from the user directory. Read-only to the service.
type User struct {
	ID       string
	Password string // bcrypt hash or literal secret
	Role     Role
}

// CheckPassword reports whether password matches the stored credential.
// Hashes produced by bcrypt are verified with bcrypt; anything else is
// compared in constant time.
func (u User) CheckPassword(password string) bool {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

// Cost returns the bcrypt cost of the stored credential, or 0 for a
// literal secret.
func (u User) Cost() int {
	if !isBcryptHash(u.Password) {
		return 0
	}
	cost, err := bcrypt.Cost([]byte(u.Password))
	if err != nil {
		return 0
	}
	return cost
}

// NewDecoy returns a user with a random credential nobody knows. Checking it does the
// same work as checking a bcrypt hash of the given cost, or a literal
// secret when cost is 0. Unknown users are checked against a decoy so a
// failed login takes as long whether or not the user exists.
func NewDecoy(cost int) (User, error) {
	secret := uuid.NewString()
	if cost == 0 {
		return User{Password: secret}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return User{}, errors.Wrap(err, "user: decoy hash")
	}
	return User{Password: string(hash)}, nil
}

var (
	defaultDecoyOnce sync.Once
	defaultDecoy     User
)

// DefaultDecoy is a bcrypt decoy at bcrypt.DefaultCost, built on first use.
func DefaultDecoy() User {
	defaultDecoyOnce.Do(func() {
		d, err := NewDecoy(bcrypt.DefaultCost)
		if err != nil {
			d = User{Password: uuid.NewString()}
		}
		defaultDecoy = d
	})
	return defaultDecoy
}
