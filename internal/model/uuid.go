package model

import "github.com/google/uuid"

// NewBatchID returns an identifier for one bulk write.
func NewBatchID() string {
	return uuid.New().String()
}
