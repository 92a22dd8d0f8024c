package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Name           string
	Email          string
	Phone          string
	NationalID     string
	Gender         string
}
