// Package store persists the most recent quota snapshot per account.
//
// The store shares its JSON file with the editor extension, so the format
// is the plain email -> record mapping both sides understand. Storage
// failures are logged and swallowed: losing history must never break the
// live status display.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
	"github.com/lvanelk/antigravity-quota-watch/internal/models"
)

// Store is a read-modify-write JSON file keyed by account email. Writes are
// deliberately not guarded by a lock: overlapping fetch cycles may race and
// the last writer wins, which is acceptable for a single-pipeline process.
type Store struct {
	path string
}

// New creates a store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// ReadAll returns the persisted records. A missing file or a file that
// fails to parse yields an empty mapping.
func (s *Store) ReadAll() map[string]models.StoredAccountRecord {
	records := make(map[string]models.StoredAccountRecord)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read quota file", "path", s.path, "error", err)
		}
		return records
	}

	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("quota file is not valid JSON, starting fresh", "path", s.path, "error", err)
		return make(map[string]models.StoredAccountRecord)
	}
	return records
}

// Upsert merges a snapshot into the stored record for its account. Full
// quota entries are reconciled specially, see reconcileModel. Failures are
// logged only.
func (s *Store) Upsert(email string, snap *models.QuotaSnapshot) {
	if email == "" || snap == nil {
		logger.Debug("skipping upsert without account email")
		return
	}

	records := s.ReadAll()
	prev := records[email]

	record := models.StoredAccountRecord{
		LastUpdatedAt: snap.CapturedAt,
		Models:        make(map[string]models.StoredModelQuota, len(snap.Models)),
	}
	for i := range snap.Models {
		m := &snap.Models[i]
		record.Models[m.ModelID] = reconcileModel(m, prev.Models)
	}
	records[email] = record

	s.write(records)
}

// reconcileModel converts a live model quota to its stored form.
//
// A model at full quota gets its remaining-reset window frozen: the value is
// captured once and carried forward unchanged while the model stays full, so
// the window only shrinks when quota is actually consumed and returns. The
// comparison is an exact >= 1.0; upstream sends an untouched model as a
// plain 1.
func reconcileModel(m *models.ModelQuota, prevModels map[string]models.StoredModelQuota) models.StoredModelQuota {
	sm := models.StoredModelQuota{
		DisplayLabel:      m.DisplayLabel,
		ModelID:           m.ModelID,
		RemainingFraction: remainingOrZero(m),
		IsExhausted:       m.IsExhausted,
	}

	if !m.IsFull() {
		if m.ResetAt != nil {
			sm.ResetAtAbsolute = m.ResetAt.UnixMilli()
		}
		return sm
	}

	if prev, ok := prevModels[m.ModelID]; ok && prev.FrozenRemainingMillis != nil {
		// Still full and already frozen: keep the original window.
		sm.ResetAtAbsolute = prev.ResetAtAbsolute
		sm.FrozenRemainingMillis = prev.FrozenRemainingMillis
		return sm
	}

	if m.ResetAt != nil {
		sm.ResetAtAbsolute = m.ResetAt.UnixMilli()
	}
	frozen := int64(0)
	if m.MillisUntilReset != nil {
		frozen = *m.MillisUntilReset
	}
	sm.FrozenRemainingMillis = &frozen
	return sm
}

func remainingOrZero(m *models.ModelQuota) float64 {
	if m.RemainingFraction == nil {
		return 0
	}
	return *m.RemainingFraction
}

func (s *Store) write(records map[string]models.StoredAccountRecord) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Error("failed to create quota directory", "path", dir, "error", err)
		return
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		logger.Error("failed to encode quota records", "error", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		logger.Error("failed to write quota file", "path", s.path, "error", err)
	}
}
