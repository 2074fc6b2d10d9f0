package model

import "time"

// Roles stored in users.role.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Categories are the user's favourite movie labels and
// drive catalog recommendations.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or ADMIN.
//  Categories   – favourite movie labels.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	Categories   []string
	CreatedAt    time.Time
}
