package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
)

// User is a local account mirrored from the LDAP directory. The directory owns
// the identity; the local row is upserted by username on every login.
type User struct {
	ID          string         `db:"id" json:"id"`
	Username    string         `db:"username" json:"username"`
	Email       string         `db:"email" json:"email,omitempty"`
	FirstName   string         `db:"first_name" json:"first_name,omitempty"`
	LastName    string         `db:"last_name" json:"last_name,omitempty"`
	DisplayName string         `db:"display_name" json:"display_name,omitempty"`
	Groups      pq.StringArray `db:"groups" json:"groups"`
	LDAPDN      string         `db:"ldap_dn" json:"ldap_dn,omitempty"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	LastLogin   *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DirectoryEntry is the subset of an LDAP entry the application cares about.
type DirectoryEntry struct {
	DN          string
	Username    string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	Groups      []string
}

// NewUserFromDirectory creates an active local user for a directory entry.
func NewUserFromDirectory(entry DirectoryEntry) *User {
	u := &User{Username: strings.TrimSpace(entry.Username), IsActive: true}
	u.ApplyDirectoryEntry(entry)
	return u
}

// ApplyDirectoryEntry refreshes every directory-owned attribute except the
// username, which never changes after creation.
func (u *User) ApplyDirectoryEntry(entry DirectoryEntry) {
	u.Email = strings.TrimSpace(entry.Email)
	u.FirstName = strings.TrimSpace(entry.FirstName)
	u.LastName = strings.TrimSpace(entry.LastName)
	u.DisplayName = strings.TrimSpace(entry.DisplayName)
	u.LDAPDN = entry.DN
	groups := make(pq.StringArray, 0, len(entry.Groups))
	for _, g := range entry.Groups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	u.Groups = groups
}

// HasGroup reports membership in a single group.
func (u *User) HasGroup(group string) bool {
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// HasAnyGroup reports membership in at least one of groups.
func (u *User) HasAnyGroup(groups ...string) bool {
	for _, g := range groups {
		if u.HasGroup(g) {
			return true
		}
	}
	return false
}

// HasAllGroups reports membership in every one of groups. An empty list is
// always satisfied.
func (u *User) HasAllGroups(groups ...string) bool {
	for _, g := range groups {
		if !u.HasGroup(g) {
			return false
		}
	}
	return true
}

// FullName joins first and last name, falling back to the display name and
// then to the username.
func (u *User) FullName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Initials returns up to two upper-case letters for avatars and signatures.
func (u *User) Initials() string {
	if u.FirstName != "" || u.LastName != "" {
		return firstLetter(u.FirstName) + firstLetter(u.LastName)
	}
	if words := strings.Fields(u.DisplayName); len(words) > 0 {
		out := firstLetter(words[0])
		if len(words) > 1 {
			out += firstLetter(words[len(words)-1])
		}
		return out
	}
	runes := []rune(u.Username)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func firstLetter(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Group     string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
