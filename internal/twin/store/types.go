// Package store holds the Story Spoiler twin's state.
package store

import "time"

// Story is a story spoiler as stored and listed by the twin.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key implements pkgstore.Keyed.
func (s Story) Key() string { return s.ID }

// User is an account the twin accepts at the login endpoint.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}
