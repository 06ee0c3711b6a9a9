package model

import "time"

type AuthEventKind string

const (
	AuthEventRegistered AuthEventKind = "registered"
	AuthEventLoggedIn   AuthEventKind = "logged_in"
)

type AuthEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserID     uint          `gorm:"not null;index" json:"user_id"`
	Kind       AuthEventKind `gorm:"size:32;not null" json:"kind"`
	OccurredAt time.Time     `gorm:"not null" json:"occurred_at"`
}
