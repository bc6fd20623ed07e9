// Package store persists extracted meter readings. Persistence is
// fire-and-forget from the capture flow's point of view: failures are
// logged, never retried here, and never block the UI.
package store

import (
	"context"
	"time"
)

// Reading is one persisted extraction.
type Reading struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CaptureID   string    `gorm:"index" json:"capture_id"`
	Reading     string    `json:"reading"`
	Unit        string    `json:"unit"`
	MeterNumber string    `json:"meter_number"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence interface for readings.
type Store interface {
	// Save inserts a reading. Identity is storage-assigned.
	Save(ctx context.Context, r *Reading) error

	// Recent returns the newest n readings, newest first.
	Recent(ctx context.Context, n int) ([]Reading, error)
}
