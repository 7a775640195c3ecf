package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())
}

func TestPipelineFor_KnownDomain(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{"scheduler", "reporting"}, reg.PipelineFor("scheduling"))
	assert.Equal(t, []string{"scheduler", "political", "reporting"}, reg.PipelineFor("political"))
}

func TestPipelineFor_UnknownDomainFallsBackToGeneral(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{"assistant"}, reg.PipelineFor("weather"))
}

func TestPipelineForIntent_MergesMatchedDomains(t *testing.T) {
	reg := Default()
	roles := reg.PipelineForIntent([]string{"tariff", "political"})
	assert.Equal(t, []string{"scheduler", "tariff", "political", "reporting"}, roles)
}

func TestPipelineForIntent_SharedRolesKeptOnce(t *testing.T) {
	reg := Default()
	roles := reg.PipelineForIntent([]string{"scheduling", "political"})
	assert.Equal(t, []string{"scheduler", "political", "reporting"}, roles)
}

func TestPipelineForIntent_SingleDomainUnchanged(t *testing.T) {
	reg := Default()
	assert.Equal(t, reg.PipelineFor("scheduling"), reg.PipelineForIntent([]string{"scheduling"}))
}

func TestPipelineForIntent_EmptyFallsBackToGeneral(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{"assistant"}, reg.PipelineForIntent(nil))
}

func TestValidate_RejectsUnknownAgentReference(t *testing.T) {
	reg := &PipelineRegistry{
		Agents: []Agent{{ID: "scheduler"}},
		Pipelines: []Pipeline{
			{Domain: "scheduling", Agents: []string{"scheduler", "forecaster"}},
		},
	}
	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecaster")
}

func TestValidate_RejectsEmptyPipeline(t *testing.T) {
	reg := &PipelineRegistry{
		Agents:    []Agent{{ID: "scheduler"}},
		Pipelines: []Pipeline{{Domain: "scheduling"}},
	}
	assert.Error(t, reg.Validate())
}

func TestLoadRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	payload := `{
		"version": "1.0",
		"agents": [
			{"id": "scheduler", "domain": "scheduling", "analysisType": "schedule"},
			{"id": "reporting", "domain": "reporting", "analysisType": "report"}
		],
		"pipelines": [
			{"domain": "scheduling", "agents": ["scheduler", "reporting"]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"scheduler", "reporting"}, reg.PipelineFor("scheduling"))

	agent := reg.AgentByID("scheduler")
	require.NotNil(t, agent)
	assert.Equal(t, "schedule", agent.AnalysisType)
}

func TestLoadRegistry_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pipelines":[{"domain":"x","agents":["ghost"]}]}`), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}
