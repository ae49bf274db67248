package models

import "time"

// LocalIssuer is the "iss" claim of access tokens minted by this service.
const LocalIssuer = "papershelf"

// User represents an application user. Local accounts carry a password hash;
// accounts first seen through an OIDC token carry only the subject.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Sub          string    `bson:"sub" json:"-"`
	Email        string    `bson:"email,omitempty" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Author is the public projection of a user attached to notes.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Author() Author {
	return Author{ID: u.ID, Name: u.Name, Email: u.Email}
}
