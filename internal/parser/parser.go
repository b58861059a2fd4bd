// Package parser converts raw status payloads into quota snapshots.
//
// The language server's response shape has drifted across releases, so the
// parser walks the untyped JSON tree and accepts several known layouts
// instead of binding to one struct. Anything it cannot recognize degrades
// to an empty snapshot rather than an error.
package parser

import (
	"encoding/json"
	"time"

	"github.com/lvanelk/antigravity-quota-watch/internal/discovery"
	"github.com/lvanelk/antigravity-quota-watch/internal/models"
)

// Parse builds a QuotaSnapshot from a raw payload. The snapshot is always
// non-nil; missing or unparseable sections simply leave their fields empty.
func Parse(payload *discovery.RawStatusPayload, now time.Time) *models.QuotaSnapshot {
	snap := &models.QuotaSnapshot{
		CapturedAt: now,
		Source:     models.SourceLocalProcess,
	}
	if payload == nil || payload.JSON == nil {
		return snap
	}

	status := childMap(payload.JSON, "userStatus")
	if status == nil {
		// Some builds return the status object at the top level.
		status = payload.JSON
	}

	snap.AccountEmail = firstString(status, "email", "userEmail")
	snap.PlanLabel = planLabel(status)
	snap.CreditBalance = creditBalance(status)
	snap.Models = modelQuotas(status, now)

	return snap
}

func planLabel(status map[string]any) string {
	if plan := childMap(status, "planStatus"); plan != nil {
		if name := firstString(plan, "planName", "plan"); name != "" {
			return name
		}
	}
	return firstString(status, "planName", "plan")
}

func creditBalance(status map[string]any) *models.CreditBalance {
	credits := childMap(status, "creditsInfo")
	if credits == nil {
		return nil
	}

	available, okAvail := childFloat(credits, "availableCredits")
	limit, okLimit := childFloat(credits, "monthlyCreditLimit")
	if !okAvail && !okLimit {
		return nil
	}

	cb := &models.CreditBalance{Available: available, MonthlyLimit: limit}
	if limit > 0 {
		cb.RemainingFraction = available / limit
		cb.UsedFraction = 1 - cb.RemainingFraction
	}
	return cb
}

// modelQuotas reads the per-model quota list from whichever layout the
// payload uses.
func modelQuotas(status map[string]any, now time.Time) []models.ModelQuota {
	if info := childMap(status, "modelQuotaInfo"); info != nil {
		if list := childList(info, "quotaInfos"); list != nil {
			return parseQuotaList(list, now)
		}
	}
	if cascade := childMap(status, "cascadeModelConfigData"); cascade != nil {
		if list := childList(cascade, "clientModelConfigs"); list != nil {
			return parseQuotaList(list, now)
		}
	}
	if list := childList(status, "modelQuotas"); list != nil {
		return parseQuotaList(list, now)
	}
	return nil
}

func parseQuotaList(list []any, now time.Time) []models.ModelQuota {
	var result []models.ModelQuota
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		mq := models.ModelQuota{
			DisplayLabel: firstString(entry, "label", "displayName", "displayLabel"),
			ModelID:      modelID(entry),
		}
		if mq.DisplayLabel == "" && mq.ModelID == "" {
			continue
		}
		if mq.DisplayLabel == "" {
			mq.DisplayLabel = mq.ModelID
		}

		quota := childMap(entry, "quotaInfo")
		if quota == nil {
			quota = entry
		}

		if frac, ok := childFloat(quota, "remainingFraction"); ok {
			f := frac
			mq.RemainingFraction = &f
		}
		if exhausted, ok := quota["isExhausted"].(bool); ok {
			mq.IsExhausted = exhausted
		}
		if resetStr := firstString(quota, "resetTime", "resetAt"); resetStr != "" {
			raw, _ := json.Marshal(resetStr)
			if reset := models.ParseTimeField(raw); !reset.IsZero() {
				r := reset
				mq.ResetAt = &r
				if millis := reset.Sub(now).Milliseconds(); millis >= 0 {
					mq.MillisUntilReset = &millis
				}
			}
		}

		mq.Normalize()
		result = append(result, mq)
	}
	return result
}

func modelID(entry map[string]any) string {
	if alias := childMap(entry, "modelOrAlias"); alias != nil {
		if id := firstString(alias, "model", "alias"); id != "" {
			return id
		}
	}
	return firstString(entry, "modelId", "model", "modelName")
}

func childMap(m map[string]any, key string) map[string]any {
	child, _ := m[key].(map[string]any)
	return child
}

func childList(m map[string]any, key string) []any {
	list, _ := m[key].([]any)
	return list
}

func childFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
