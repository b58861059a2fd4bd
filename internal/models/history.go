package models

import "time"

// HistoryPoint is one persisted observation of a model's quota, used to
// chart consumption over time.
type HistoryPoint struct {
	ID                int64
	Timestamp         time.Time
	Email             string
	ModelID           string
	Label             string
	RemainingFraction float64
	IsExhausted       bool
	ResetAt           time.Time
}
