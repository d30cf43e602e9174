// Package domain contains core concepts of the messaging system.
// This file defines the minimal profile projection returned by the
// user directory.
package domain

// Profile is the projection of a user exposed alongside threads.
type Profile struct {
	ID     UserID
	Name   string
	Avatar string
}
