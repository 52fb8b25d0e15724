// Package users loads the read-only staff directory.
package users

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"bistro/domain/user"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// entry is the on-disk form shared by the JSON and YAML layouts.
type entry struct {
	UserID   string `json:"userID" yaml:"userID"`
	Password string `json:"password" yaml:"password"`
	Role     string `json:"role" yaml:"role"`
}

type Directory struct {
	users map[string]user.User
	decoy user.User
}

// Load reads path as YAML when it ends in .yaml or .yml and as a JSON list
// otherwise.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "users: read directory")
	}

	var entries []entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "users: parse %s", filepath.Base(path))
	}
	return fromEntries(entries)
}

// fromEntries builds a directory from parsed entries. Roles are parsed strictly and ids
// must be unique.
func fromEntries(entries []entry) (*Directory, error) {
	d := &Directory{users: make(map[string]user.User, len(entries))}
	for i, e := range entries {
		if e.UserID == "" {
			return nil, errors.Newf("users: entry %d has no userID", i)
		}
		if _, dup := d.users[e.UserID]; dup {
			return nil, errors.Newf("users: duplicate userID %q", e.UserID)
		}
		role, err := user.ParseRole(e.Role)
		if err != nil {
			return nil, errors.Wrapf(err, "users: %q", e.UserID)
		}
		d.users[e.UserID] = user.User{ID: e.UserID, Password: e.Password, Role: role}
	}
	if err := d.buildDecoy(); err != nil {
		return nil, err
	}
	return d, nil
}

// FromUsers builds a directory from already parsed users.
func FromUsers(list ...user.User) (*Directory, error) {
	d := &Directory{users: make(map[string]user.User, len(list))}
	for _, u := range list {
		if _, dup := d.users[u.ID]; dup {
			return nil, errors.Newf("users: duplicate userID %q", u.ID)
		}
		d.users[u.ID] = u
	}
	if err := d.buildDecoy(); err != nil {
		return nil, err
	}
	return d, nil
}

// buildDecoy picks a stand-in credential as costly to check as the most
// expensive stored one.
func (d *Directory) buildDecoy() error {
	cost := 0
	for _, u := range d.users {
		if c := u.Cost(); c > cost {
			cost = c
		}
	}
	decoy, err := user.NewDecoy(cost)
	if err != nil {
		return errors.Wrap(err, "users: decoy")
	}
	d.decoy = decoy
	return nil
}

func (d *Directory) Lookup(userID string) (user.User, bool) {
	u, ok := d.users[userID]
	return u, ok
}

// Decoy returns the credential unknown user ids are checked against.
func (d *Directory) Decoy() user.User { return d.decoy }

func (d *Directory) Len() int { return len(d.users) }
