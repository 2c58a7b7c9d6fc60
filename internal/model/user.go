package model

import "time"

// User mirrors the users table.  Role is either "customer" or "admin".
// Phone and Country are optional contact details used when composing
// booking notification emails.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    Phone        *string   // users.phone (nullable)
    Country      *string   // users.country (nullable)
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
