package models

import (
	"fmt"
	"strings"
)

// Role is a closed set of account roles. Roles carry no ordering: a route
// lists every role it admits.
type Role string

const (
	RoleGuest   Role = "GUEST"
	RoleCurator Role = "CURATOR"
	RoleAdmin   Role = "ADMIN"
)

var allRoles = []Role{RoleGuest, RoleCurator, RoleAdmin}

func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleCurator, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is an allow-list of roles.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.Valid() {
			set[r] = struct{}{}
		}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
