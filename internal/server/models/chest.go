package models

import "time"

// Chest is a recorded chest sighting. Position is packed with Position.Pack.
type Chest struct {
	ID        int64
	Position  int64
	Level     int16
	FoundBy   uint64
	CreatedAt time.Time
}
