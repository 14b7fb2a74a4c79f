package models

import "time"

// Profile identifies a user. The board engine treats it as opaque.
type Profile struct {
	ID        string
	UserID    string
	FullName  string
	Email     string
	CreatedAt time.Time
}

// System is reference data for the issue module picker.
type System struct {
	ID   string
	Name string
}
