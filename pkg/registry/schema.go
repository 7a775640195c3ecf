// pkg/registry/schema.go
package registry

type PipelineRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Agents      []Agent    `json:"agents"`
	Pipelines   []Pipeline `json:"pipelines"`
}

// Agent describes one registered agent and its advertised capabilities.
type Agent struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Domain       string   `json:"domain"`
	AnalysisType string   `json:"analysisType"`
	Keywords     []string `json:"keywords,omitempty"`
	Examples     []string `json:"examples,omitempty"`
	Timeout      string   `json:"timeout,omitempty"`
	Retries      int      `json:"retries,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Pipeline maps a classified domain to the ordered agent roles that serve
// it. Agents listed in the middle tier run in parallel.
type Pipeline struct {
	Domain string   `json:"domain"`
	Agents []string `json:"agents"`
}
