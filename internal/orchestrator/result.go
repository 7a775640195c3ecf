package orchestrator

import (
	"time"

	"supplyguard/internal/models"
)

// Result is the caller-facing payload rendered from a sealed thread.
// Degraded or partial analyses are reflected in Confidence and the
// per-invocation records, never omitted.
type Result struct {
	ThreadID        string                 `json:"threadId"`
	Domain          string                 `json:"domain"`
	AgentName       string                 `json:"agentName"`
	AnalysisType    string                 `json:"analysisType"`
	RiskLevel       string                 `json:"riskLevel"`
	RiskScore       float64                `json:"riskScore"`
	Summary         string                 `json:"summary"`
	Details         map[string]interface{} `json:"details,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
	AffectedEquip   []interface{}          `json:"affectedEquipment,omitempty"`
	RecentEvents    []interface{}          `json:"recentEvents,omitempty"`
	Confidence      float64                `json:"confidence"`
	Provenance      string                 `json:"provenance"`
	Invocations     []InvocationSummary    `json:"invocations"`
	ClosedAt        time.Time              `json:"closedAt"`
}

type InvocationSummary struct {
	Agent    string  `json:"agent"`
	Status   string  `json:"status"`
	Score    float64 `json:"score,omitempty"`
	Level    string  `json:"level,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration string  `json:"duration"`
}

// ResultFrom flattens a sealed thread into the response payload.
func ResultFrom(thread *models.ConversationThread) Result {
	res := Result{
		ThreadID: thread.ID,
		Domain:   string(models.DomainGeneral),
		ClosedAt: thread.ClosedAt,
	}
	if thread.Intent != nil {
		res.Domain = string(thread.Intent.Primary())
	}

	if v := thread.Verdict; v != nil {
		res.AnalysisType = v.Dimension
		res.RiskLevel = string(v.Level)
		res.RiskScore = v.Score
		res.Summary = v.Summary
		res.Details = v.Details
		res.Recommendations = v.Recommendations
		res.Confidence = v.Confidence
		res.Provenance = string(v.Provenance)
	}

	for _, inv := range thread.Invocations {
		summary := InvocationSummary{
			Agent:    inv.AgentID,
			Status:   string(inv.Status),
			Error:    inv.Error,
			Duration: inv.Duration.String(),
		}
		if inv.Result != nil {
			summary.Score = inv.Result.Score
			summary.Level = string(inv.Result.Level)

			collectEnrichment(&res, inv.Result.Details)
		}
		res.Invocations = append(res.Invocations, summary)
	}

	if n := len(thread.Invocations); n > 0 {
		res.AgentName = thread.Invocations[n-1].AgentID
	}
	return res
}

// collectEnrichment lifts affected-equipment and recent-event context
// out of invocation details into the top-level payload.
func collectEnrichment(res *Result, details map[string]interface{}) {
	if eq, ok := details["affected_equipment"].([]map[string]interface{}); ok && len(res.AffectedEquip) == 0 {
		for _, item := range eq {
			res.AffectedEquip = append(res.AffectedEquip, item)
		}
	}
	if ev, ok := details["recent_events"].([]map[string]interface{}); ok && len(res.RecentEvents) == 0 {
		for _, item := range ev {
			res.RecentEvents = append(res.RecentEvents, item)
		}
	}
}
