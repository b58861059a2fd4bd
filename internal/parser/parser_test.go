package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/discovery"
	"github.com/lvanelk/antigravity-quota-watch/internal/models"
)

func payloadFromJSON(t *testing.T, body string) *discovery.RawStatusPayload {
	t.Helper()
	var tree map[string]any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		t.Fatalf("test payload is not valid JSON: %v", err)
	}
	return &discovery.RawStatusPayload{JSON: tree, Raw: body}
}

func TestParseFullStatus(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	payload := payloadFromJSON(t, `{
		"userStatus": {
			"email": "dev@example.com",
			"planStatus": {"planName": "Pro"},
			"creditsInfo": {"availableCredits": 300, "monthlyCreditLimit": 500},
			"modelQuotaInfo": {
				"quotaInfos": [
					{
						"label": "Fast Model",
						"modelId": "fast-1",
						"quotaInfo": {"remainingFraction": 0.75, "resetTime": "2026-08-25T15:00:00Z"}
					},
					{
						"label": "Smart Model",
						"modelId": "smart-1",
						"quotaInfo": {"remainingFraction": 0}
					}
				]
			}
		}
	}`)

	snap := Parse(payload, now)

	if snap.AccountEmail != "dev@example.com" {
		t.Errorf("AccountEmail = %q", snap.AccountEmail)
	}
	if snap.PlanLabel != "Pro" {
		t.Errorf("PlanLabel = %q", snap.PlanLabel)
	}
	if snap.Source != models.SourceLocalProcess {
		t.Errorf("Source = %q", snap.Source)
	}

	if snap.CreditBalance == nil {
		t.Fatal("expected credit balance")
	}
	if snap.CreditBalance.RemainingFraction != 0.6 {
		t.Errorf("RemainingFraction = %v", snap.CreditBalance.RemainingFraction)
	}

	if len(snap.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(snap.Models))
	}

	fast := snap.Models[0]
	if fast.DisplayLabel != "Fast Model" || fast.ModelID != "fast-1" {
		t.Errorf("unexpected first model %+v", fast)
	}
	if fast.Remaining() != 0.75 {
		t.Errorf("Remaining() = %v", fast.Remaining())
	}
	if fast.ResetAt == nil || !fast.ResetAt.Equal(time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("ResetAt = %v", fast.ResetAt)
	}
	wantMillis := int64(3 * time.Hour / time.Millisecond)
	if fast.MillisUntilReset == nil || *fast.MillisUntilReset != wantMillis {
		t.Errorf("MillisUntilReset = %v, want %d", fast.MillisUntilReset, wantMillis)
	}

	smart := snap.Models[1]
	if !smart.IsExhausted {
		t.Error("a zero remaining fraction must mark the model exhausted")
	}
}

func TestParseCascadeLayout(t *testing.T) {
	payload := payloadFromJSON(t, `{
		"userStatus": {
			"email": "dev@example.com",
			"cascadeModelConfigData": {
				"clientModelConfigs": [
					{
						"displayName": "Fast Model",
						"modelOrAlias": {"model": "fast-1"},
						"quotaInfo": {"remainingFraction": 1.0}
					}
				]
			}
		}
	}`)

	snap := Parse(payload, time.Now())
	if len(snap.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(snap.Models))
	}
	m := snap.Models[0]
	if m.ModelID != "fast-1" || m.DisplayLabel != "Fast Model" {
		t.Errorf("unexpected model %+v", m)
	}
	if !m.IsFull() {
		t.Error("expected a full quota")
	}
}

func TestParseOpaquePayload(t *testing.T) {
	payload := &discovery.RawStatusPayload{Raw: "drifted response shape"}

	snap := Parse(payload, time.Now())
	if snap == nil {
		t.Fatal("Parse must never return nil")
	}
	if len(snap.Models) != 0 || snap.AccountEmail != "" {
		t.Errorf("opaque payload must yield an empty snapshot, got %+v", snap)
	}
}

func TestParseNilPayload(t *testing.T) {
	snap := Parse(nil, time.Now())
	if snap == nil || snap.Source != models.SourceLocalProcess {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestParsePastResetTimeOmitsCountdown(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	payload := payloadFromJSON(t, `{
		"userStatus": {
			"email": "dev@example.com",
			"modelQuotaInfo": {
				"quotaInfos": [
					{"label": "Fast", "modelId": "fast-1",
					 "quotaInfo": {"remainingFraction": 0.5, "resetTime": "2026-08-25T11:00:00Z"}}
				]
			}
		}
	}`)

	snap := Parse(payload, now)
	if len(snap.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(snap.Models))
	}
	m := snap.Models[0]
	if m.MillisUntilReset != nil {
		t.Errorf("a reset time in the past must not produce a countdown, got %d", *m.MillisUntilReset)
	}
	if m.ResetAt == nil {
		t.Error("the absolute reset time should still be carried")
	}
}
