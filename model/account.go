// api/model/account.go
package model

import (
	"time"
)

// EveryoneGroupID is the well-known group every actor belongs to, including
// the anonymous one. Grants to it are public grants.
const EveryoneGroupID = "8746a64b-abd5-4838-a332-02c356bbeac0"

// Account identifies a registry user. Identity is the email address.
type Account struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Anonymous reports whether the account is the unauthenticated actor.
func (a Account) Anonymous() bool {
	return a.Email == ""
}

// Group is a set of accounts that can be the subject of a grant. Membership
// is owned by account management; this core only reads it.
type Group struct {
	UUID         string   `json:"uuid"`
	Label        string   `json:"label"`
	Description  string   `json:"description,omitempty"`
	MemberEmails []string `json:"member_emails,omitempty"`
}
