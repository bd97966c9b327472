package model

import "github.com/google/uuid"

// newID generates primary keys for engine-owned rows
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
