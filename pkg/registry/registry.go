// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*PipelineRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg PipelineRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Default returns the built-in registry used when no registry file is
// configured.
func Default() *PipelineRegistry {
	return &PipelineRegistry{
		Version: "1.0",
		Agents: []Agent{
			{
				ID:           "scheduler",
				DisplayName:  "Schedule Analysis Agent",
				Description:  "Analyzes delivery schedules, delays and completion risk",
				Domain:       "scheduling",
				AnalysisType: "schedule",
				Keywords:     []string{"schedule", "delay", "deadline", "delivery", "timeline"},
				Examples:     []string{"What are the schedule risks?", "Which deliveries are delayed?"},
			},
			{
				ID:           "political",
				DisplayName:  "Political Risk Agent",
				Description:  "Analyzes geopolitical exposure along trade routes",
				Domain:       "political",
				AnalysisType: "political",
				Keywords:     []string{"political", "sanction", "war", "country", "geopolitical"},
				Examples:     []string{"What is the political risk for equipment from China?"},
			},
			{
				ID:           "logistics",
				DisplayName:  "Logistics Risk Agent",
				Description:  "Analyzes transport, port and carrier disruptions",
				Domain:       "logistics",
				AnalysisType: "logistics",
				Keywords:     []string{"logistics", "shipping", "port", "transport", "customs"},
				Examples:     []string{"Are there shipping disruptions affecting our routes?"},
			},
			{
				ID:           "tariff",
				DisplayName:  "Tariff Risk Agent",
				Description:  "Analyzes tariff and trade policy exposure",
				Domain:       "tariff",
				AnalysisType: "tariff",
				Keywords:     []string{"tariff", "duty", "trade policy", "import", "export"},
				Examples:     []string{"How do new tariffs affect our imports?"},
			},
			{
				ID:           "assistant",
				DisplayName:  "General Assistant Agent",
				Description:  "Answers general questions without risk analysis",
				Domain:       "general",
				AnalysisType: "general",
			},
			{
				ID:           "reporting",
				DisplayName:  "Reporting Agent",
				Description:  "Aggregates prior results into the final verdict",
				Domain:       "reporting",
				AnalysisType: "report",
			},
		},
		Pipelines: []Pipeline{
			{Domain: "general", Agents: []string{"assistant"}},
			{Domain: "scheduling", Agents: []string{"scheduler", "reporting"}},
			{Domain: "political", Agents: []string{"scheduler", "political", "reporting"}},
			{Domain: "logistics", Agents: []string{"scheduler", "logistics", "reporting"}},
			{Domain: "tariff", Agents: []string{"scheduler", "tariff", "reporting"}},
		},
	}
}

// Validate checks that every pipeline references registered agents.
func (r *PipelineRegistry) Validate() error {
	known := make(map[string]bool, len(r.Agents))
	for _, a := range r.Agents {
		if a.ID == "" {
			return fmt.Errorf("registry agent with empty id")
		}
		known[a.ID] = true
	}
	for _, p := range r.Pipelines {
		if len(p.Agents) == 0 {
			return fmt.Errorf("pipeline for domain %q has no agents", p.Domain)
		}
		for _, id := range p.Agents {
			if !known[id] {
				return fmt.Errorf("pipeline for domain %q references unknown agent %q", p.Domain, id)
			}
		}
	}
	return nil
}

// PipelineFor returns the agent roles for a domain, falling back to the
// general pipeline.
func (r *PipelineRegistry) PipelineFor(domain string) []string {
	var general []string
	for _, p := range r.Pipelines {
		if p.Domain == domain {
			return p.Agents
		}
		if p.Domain == "general" {
			general = p.Agents
		}
	}
	return general
}

// PipelineForIntent merges the pipelines of every matched domain, in
// rank order. Shared roles are kept once: the lead agent stays first,
// domain agents keep classifier order, reporting stays last.
func (r *PipelineRegistry) PipelineForIntent(domains []string) []string {
	if len(domains) == 0 {
		return r.PipelineFor("general")
	}
	if len(domains) == 1 {
		return r.PipelineFor(domains[0])
	}

	seen := make(map[string]bool)
	var roles []string
	hasReporting := false
	for _, d := range domains {
		for _, role := range r.PipelineFor(d) {
			if role == "reporting" {
				hasReporting = true
				continue
			}
			if seen[role] {
				continue
			}
			seen[role] = true
			roles = append(roles, role)
		}
	}
	if hasReporting {
		roles = append(roles, "reporting")
	}
	return roles
}

// AgentByID returns the registered agent description, nil when absent.
func (r *PipelineRegistry) AgentByID(id string) *Agent {
	for i := range r.Agents {
		if r.Agents[i].ID == id {
			return &r.Agents[i]
		}
	}
	return nil
}
