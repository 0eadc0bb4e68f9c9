package models

import "time"

// User is the stable identity row for a player uuid. ID is part of every
// credential issued to that player.
type User struct {
	ID        uint64
	UUID      string
	CreatedAt time.Time
}
