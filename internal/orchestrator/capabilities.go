package orchestrator

import (
	"context"
)

// Capability describes one agent the engine can route to.
type Capability struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Domain      string   `json:"domain"`
	Keywords    []string `json:"keywords,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	Available   bool     `json:"available"`
}

// Capabilities lists the registered agents against the registry, so
// callers can see which declared roles are actually wired.
func (o *Orchestrator) Capabilities() []Capability {
	out := make([]Capability, 0, len(o.registry.Agents))
	for _, a := range o.registry.Agents {
		_, wired := o.agents[a.ID]
		if a.ID == "reporting" {
			wired = o.reporter != nil
		}
		out = append(out, Capability{
			ID:          a.ID,
			DisplayName: a.DisplayName,
			Description: a.Description,
			Domain:      a.Domain,
			Keywords:    a.Keywords,
			Examples:    a.Examples,
			Available:   wired,
		})
	}
	return out
}

// HealthChecker reports readiness of one engine dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Health reports per-dependency status. The engine itself is healthy as
// long as its agents are wired; degraded dependencies are listed so the
// caller can judge.
func (o *Orchestrator) Health(ctx context.Context, deps map[string]HealthChecker) map[string]string {
	status := map[string]string{
		"engine": "ok",
	}
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}
	return status
}
