package model

// User represents a row in the `users` table.  A user is identified by the
// pair (Username, SCMContext): the same login on two different source
// control hosts is two different users.
//
// Fields:
//  ID         – primary key identifier of the user.
//  Username   – login name on the SCM host.
//  SCMContext – SCM host the login belongs to (e.g. github:github.com).
type User struct {
	ID         uint64 // users.id
	Username   string // users.username
	SCMContext string // users.scm_context
}
