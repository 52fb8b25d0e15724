package user

import (
	"testing"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"MANAGER", RoleManager, false},
		{"manager", RoleManager, false},
		{" SERVER ", RoleServer, false},
		{"ROLE_UNSPECIFIED", RoleUnspecified, false},
		{"CHEF", RoleUnspecified, true},
		{"", RoleUnspecified, true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRole(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnknownRole) {
			t.Errorf("ParseRole(%q) err = %v, want ErrUnknownRole", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoleStringRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleUnspecified, RoleManager, RoleServer} {
		got, err := ParseRole(r.String())
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", r.String(), err)
		}
		if got != r {
			t.Errorf("round trip %v -> %v", r, got)
		}
	}
}

func TestCheckPassword(t *testing.T) {
	plain := User{ID: "manager1", Password: "pass123", Role: RoleManager}
	if !plain.CheckPassword("pass123") {
		t.Error("literal password should match")
	}
	if plain.CheckPassword("pass1234") {
		t.Error("wrong literal password matched")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	hashed := User{ID: "server1", Password: string(hash), Role: RoleServer}
	if !hashed.CheckPassword("s3cret") {
		t.Error("bcrypt password should match")
	}
	if hashed.CheckPassword(string(hash)) {
		t.Error("hash itself must not be accepted as the password")
	}
}

func TestDecoy(t *testing.T) {
	hashed, err := NewDecoy(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if hashed.Cost() != bcrypt.MinCost {
		t.Errorf("decoy cost = %d, want %d", hashed.Cost(), bcrypt.MinCost)
	}
	plain, err := NewDecoy(0)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Cost() != 0 {
		t.Errorf("literal decoy cost = %d", plain.Cost())
	}
	for _, d := range []User{hashed, plain} {
		for _, pw := range []string{"", "pass123", hashed.Password} {
			if d.CheckPassword(pw) {
				t.Errorf("decoy %q accepted %q", d.Password, pw)
			}
		}
	}
}
