package domain

import "time"

// User is a requester: the party that pays to have tasks answered.
type User struct {
	ID        int64
	Address   string
	CreatedAt time.Time
}
