package models

import "time"

// StoredModelQuota is the persisted form of a model's quota state.
//
// FrozenRemainingMillis is set if and only if the model's remaining fraction
// was >= 1.0 at write time. The value is captured once and never recomputed
// from wall clock on later reads, so an untouched "full" quota does not
// appear to decay just because snapshots keep arriving.
type StoredModelQuota struct {
	DisplayLabel          string  `json:"displayLabel"`
	ModelID               string  `json:"modelId"`
	RemainingFraction     float64 `json:"remainingFraction"`
	IsExhausted           bool    `json:"isExhausted"`
	ResetAtAbsolute       int64   `json:"resetAtAbsolute"`
	FrozenRemainingMillis *int64  `json:"frozenRemainingMillis,omitempty"`
}

// StoredAccountRecord is the persisted per-account entry, keyed by email in
// the snapshot file.
type StoredAccountRecord struct {
	LastUpdatedAt time.Time                   `json:"lastUpdatedAt"`
	Models        map[string]StoredModelQuota `json:"models"`
}
