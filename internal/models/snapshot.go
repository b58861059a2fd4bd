// Package models defines data structures and domain types.
package models

import (
	"encoding/json"
	"time"
)

// SnapshotSource identifies where a quota snapshot was obtained from.
type SnapshotSource string

const (
	// SourceLocalProcess marks snapshots fetched from the local language server.
	SourceLocalProcess SnapshotSource = "local-process"
	// SourceRemoteAccount marks snapshots written by external tooling that
	// talks to the remote account API. This program never produces them but
	// tolerates them in the shared quota file.
	SourceRemoteAccount SnapshotSource = "remote-account"
)

// CreditBalance describes the prompt-credit pool for an account.
type CreditBalance struct {
	Available         float64 `json:"available"`
	MonthlyLimit      float64 `json:"monthlyLimit"`
	UsedFraction      float64 `json:"usedFraction"`
	RemainingFraction float64 `json:"remainingFraction"`
}

// ModelQuota represents quota information for a single model.
type ModelQuota struct {
	DisplayLabel      string     `json:"displayLabel"`
	ModelID           string     `json:"modelId"`
	RemainingFraction *float64   `json:"remainingFraction,omitempty"`
	IsExhausted       bool       `json:"isExhausted"`
	ResetAt           *time.Time `json:"resetAt,omitempty"`
	MillisUntilReset  *int64     `json:"millisUntilReset,omitempty"`
}

// QuotaSnapshot is the stable output of one fetch cycle. It is immutable
// once constructed and handed to consumers as a read-only value.
type QuotaSnapshot struct {
	CapturedAt    time.Time      `json:"capturedAt"`
	Source        SnapshotSource `json:"source"`
	AccountEmail  string         `json:"accountEmail,omitempty"`
	PlanLabel     string         `json:"planLabel,omitempty"`
	CreditBalance *CreditBalance `json:"creditBalance,omitempty"`
	Models        []ModelQuota   `json:"models"`
}

// Remaining returns the remaining fraction, or -1 when unknown.
func (m *ModelQuota) Remaining() float64 {
	if m.RemainingFraction == nil {
		return -1
	}
	return *m.RemainingFraction
}

// IsFull reports whether the model still has its entire quota available.
func (m *ModelQuota) IsFull() bool {
	return m.RemainingFraction != nil && *m.RemainingFraction >= 1.0
}

// Normalize enforces the exhaustion invariant: a model with exactly zero
// remaining fraction is always marked exhausted. The converse does not hold;
// a model may be exhausted without a known fraction.
func (m *ModelQuota) Normalize() {
	if m.RemainingFraction != nil && *m.RemainingFraction == 0 {
		m.IsExhausted = true
	}
}

// ParseTimeField attempts to parse a JSON time value as either an ISO 8601
// string or a Unix timestamp (seconds or milliseconds).
func ParseTimeField(data json.RawMessage) time.Time {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if t, err := time.Parse(time.RFC3339, strVal); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, strVal); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", strVal); err == nil {
			return t
		}
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			// Milliseconds
			return time.UnixMilli(int64(numVal))
		}
		return time.Unix(int64(numVal), 0)
	}

	return time.Time{}
}
