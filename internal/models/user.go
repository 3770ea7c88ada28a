package models

import "time"

type User struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Mobile       string    `bson:"mobile"`
	PasswordHash []byte    `bson:"password"`
	IsAdmin      bool      `bson:"is_admin"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// UserUpdate carries the fields an admin edit may change. The password
// and the admin flag are not editable.
type UserUpdate struct {
	Name   string
	Email  string
	Mobile string
}
