package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/internal/agents"
	"supplyguard/internal/agents/assistant"
	"supplyguard/internal/agents/logistics"
	"supplyguard/internal/agents/political"
	"supplyguard/internal/agents/reporting"
	"supplyguard/internal/agents/scheduler"
	"supplyguard/internal/agents/tariff"
	"supplyguard/internal/common/config"
	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/intent"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
	"supplyguard/pkg/registry"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Bands:               config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		DivergenceThreshold: 40,
		Threshold: config.ThresholdConfig{
			DelayPercent: []float64{10, 25, 50, 75},
			HighImpact:   []float64{2, 5, 10, 15},
			AvgDelayDays: []float64{3, 7, 14, 30},
		},
		Keyword: config.KeywordConfig{
			HighWeight:   10,
			MediumWeight: 5,
			LowWeight:    1,
		},
		TradeRoute: config.TradeRouteConfig{
			UnknownCountryRisk: 40,
			TransitFactor:      0.1,
		},
		TimeWindow: config.TimeWindowConfig{
			WindowDays: []int{1, 7, 30, 90},
			Decay:      []float64{1.0, 0.8, 0.5, 0.2},
		},
	}
}

func seedStore() *storage.MemoryStore {
	store := storage.NewMemoryStore()
	for i := 0; i < 20; i++ {
		s := models.Schedule{
			ID:               fmt.Sprintf("s-%d", i+1),
			EquipmentID:      "eq-1",
			Status:           models.ScheduleStatusInProgress,
			PlannedStartDate: fixedNow.AddDate(0, 0, -30),
			PlannedEndDate:   fixedNow.AddDate(0, 0, 30),
		}
		if i < 6 {
			s.Status = models.ScheduleStatusDelayed
			s.DelayDays = 2
		}
		store.SeedSchedules(s)
	}
	store.SeedEquipment(models.Equipment{ID: "eq-1", Name: "Lithography Unit", Category: "semiconductor", ManufacturingCountry: "Germany", DestinationCountry: "Taiwan"})
	return store
}

func newTestOrchestrator(t *testing.T, store storage.Store) *Orchestrator {
	log := logger.NewTestLogger(t)
	analysisCfg := testAnalysisConfig()

	return New(Options{
		Classifier: intent.NewClassifier(log),
		Registry:   registry.Default(),
		Agents: []agents.Agent{
			scheduler.NewHandler(scheduler.LoadConfig(), store, nil, analysisCfg, log),
			political.NewHandler(political.LoadConfig(), store, nil, analysisCfg, log),
			logistics.NewHandler(logistics.LoadConfig(), store, nil, analysisCfg, log),
			tariff.NewHandler(tariff.LoadConfig(), store, nil, analysisCfg, log),
			assistant.NewHandler(assistant.LoadConfig(), store, nil, analysisCfg, log),
		},
		Reporter:     reporting.NewHandler(reporting.LoadConfig(), analysisCfg, log),
		AgentTimeout: 2 * time.Second,
		Overall:      5 * time.Second,
		Now:          func() time.Time { return fixedNow },
	}, log)
}

func TestProcess_ScheduleQueryEndToEnd(t *testing.T) {
	o := newTestOrchestrator(t, seedStore())

	thread, err := o.Process(context.Background(), models.Query{Text: "What are the schedule risks?"})
	require.NoError(t, err)

	assert.Equal(t, models.DomainScheduling, thread.Intent.Primary())
	assert.Equal(t, models.ThreadClosed, thread.State)
	assert.True(t, thread.Sealed)

	require.Len(t, thread.Invocations, 2)
	assert.Equal(t, "scheduler", thread.Invocations[0].AgentID)
	assert.Equal(t, "reporting", thread.Invocations[1].AgentID)

	sched := thread.Invocations[0].Result
	require.NotNil(t, sched)
	assert.InDelta(t, 30.0, sched.Details["delay_percent"], 0.001)

	require.NotNil(t, thread.Verdict)
	assert.Equal(t, models.RiskMedium, thread.Verdict.Level)
}

func TestProcess_GreetingIsAssistantOnly(t *testing.T) {
	o := newTestOrchestrator(t, storage.NewMemoryStore())

	thread, err := o.Process(context.Background(), models.Query{Text: "Hello, can you help me?"})
	require.NoError(t, err)

	assert.Equal(t, models.DomainGeneral, thread.Intent.Primary())
	require.Len(t, thread.Invocations, 1)
	assert.Equal(t, "assistant", thread.Invocations[0].AgentID)
	assert.Equal(t, models.ThreadClosed, thread.State)
	assert.Equal(t, 0.0, thread.Verdict.Score)
}

func TestProcess_MultiDomainQueryRunsAllMatchedAgents(t *testing.T) {
	o := newTestOrchestrator(t, seedStore())

	thread, err := o.Process(context.Background(), models.Query{
		Text: "How do sanctions and the war affect tariff hikes and import duties from Russia?",
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(thread.Intent.Domains()), 2)

	ran := map[string]bool{}
	for _, inv := range thread.Invocations {
		ran[inv.AgentID] = true
	}
	assert.True(t, ran["political"], "political agent should run")
	assert.True(t, ran["tariff"], "tariff agent should run")
	assert.True(t, ran["scheduler"])
	assert.True(t, ran["reporting"])

	assert.Equal(t, "scheduler", thread.Invocations[0].AgentID)
	assert.Equal(t, "reporting", thread.Invocations[len(thread.Invocations)-1].AgentID)
	assert.Equal(t, models.ThreadClosed, thread.State)
}

func TestProcess_Idempotent(t *testing.T) {
	store := seedStore()
	o := newTestOrchestrator(t, store)

	first, err := o.Process(context.Background(), models.Query{Text: "What are the schedule risks?"})
	require.NoError(t, err)
	second, err := o.Process(context.Background(), models.Query{Text: "What are the schedule risks?"})
	require.NoError(t, err)

	assert.Equal(t, first.Verdict.Score, second.Verdict.Score)
	assert.Equal(t, first.Verdict.Level, second.Verdict.Level)
	assert.Equal(t, first.Verdict.Summary, second.Verdict.Summary)
}

type failingAgent struct{ id string }

func (f *failingAgent) ID() string           { return f.id }
func (f *failingAgent) AnalysisType() string { return f.id }
func (f *failingAgent) Analyze(ctx context.Context, req agents.Request) (models.RiskScore, error) {
	return models.RiskScore{}, stderrors.NewAgentFailureError(f.id, assert.AnError)
}

func TestProcess_AgentFailureIsAbsorbed(t *testing.T) {
	log := logger.NewTestLogger(t)
	analysisCfg := testAnalysisConfig()
	store := seedStore()

	o := New(Options{
		Classifier: intent.NewClassifier(log),
		Registry:   registry.Default(),
		Agents: []agents.Agent{
			scheduler.NewHandler(scheduler.LoadConfig(), store, nil, analysisCfg, log),
			&failingAgent{id: "political"},
		},
		Reporter:     reporting.NewHandler(reporting.LoadConfig(), analysisCfg, log),
		AgentTimeout: 2 * time.Second,
		Overall:      5 * time.Second,
		Now:          func() time.Time { return fixedNow },
	}, log)

	thread, err := o.Process(context.Background(), models.Query{Text: "What is the political risk in China?"})
	require.NoError(t, err)

	assert.Equal(t, models.ThreadClosed, thread.State)

	var failed *models.AgentInvocation
	for i := range thread.Invocations {
		if thread.Invocations[i].AgentID == "political" {
			failed = &thread.Invocations[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, models.InvocationFailed, failed.Status)
	require.NotNil(t, failed.Result)
	assert.Equal(t, 0.0, failed.Result.Confidence)
}

type downStore struct{}

func (d *downStore) Equipment(ctx context.Context, f storage.Filter) ([]models.Equipment, error) {
	return nil, stderrors.NewStorageUnavailableError(assert.AnError)
}
func (d *downStore) Schedules(ctx context.Context, f storage.Filter) ([]models.Schedule, error) {
	return nil, stderrors.NewStorageUnavailableError(assert.AnError)
}
func (d *downStore) NewsEvents(ctx context.Context, f storage.Filter) ([]models.NewsEvent, error) {
	return nil, stderrors.NewStorageUnavailableError(assert.AnError)
}

func TestProcess_StorageUnavailableIsFatal(t *testing.T) {
	o := newTestOrchestrator(t, &downStore{})

	_, err := o.Process(context.Background(), models.Query{Text: "What are the schedule risks?"})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeStorageUnavailable, stderrors.CodeOf(err))
}

type slowAgent struct{ id string }

func (s *slowAgent) ID() string           { return s.id }
func (s *slowAgent) AnalysisType() string { return s.id }
func (s *slowAgent) Analyze(ctx context.Context, req agents.Request) (models.RiskScore, error) {
	select {
	case <-time.After(5 * time.Second):
		return models.RiskScore{Dimension: s.id, Score: 50}, nil
	case <-ctx.Done():
		return models.RiskScore{}, ctx.Err()
	}
}

func TestProcess_AgentTimeoutRecordedAndPipelineReports(t *testing.T) {
	log := logger.NewTestLogger(t)
	analysisCfg := testAnalysisConfig()

	o := New(Options{
		Classifier: intent.NewClassifier(log),
		Registry:   registry.Default(),
		Agents: []agents.Agent{
			scheduler.NewHandler(scheduler.LoadConfig(), seedStore(), nil, analysisCfg, log),
			&slowAgent{id: "political"},
		},
		Reporter:     reporting.NewHandler(reporting.LoadConfig(), analysisCfg, log),
		AgentTimeout: 50 * time.Millisecond,
		Overall:      5 * time.Second,
		Now:          func() time.Time { return fixedNow },
	}, log)

	thread, err := o.Process(context.Background(), models.Query{Text: "What is the political risk in Russia?"})
	require.NoError(t, err)

	assert.Equal(t, models.ThreadClosed, thread.State)

	var timedOut bool
	for _, inv := range thread.Invocations {
		if inv.AgentID == "political" && inv.Status == models.InvocationTimedOut {
			timedOut = true
		}
	}
	assert.True(t, timedOut)
	require.NotNil(t, thread.Verdict)
}

func TestResultFrom_FlattensThread(t *testing.T) {
	o := newTestOrchestrator(t, seedStore())

	thread, err := o.Process(context.Background(), models.Query{Text: "What are the schedule risks?"})
	require.NoError(t, err)

	res := ResultFrom(thread)

	assert.Equal(t, thread.ID, res.ThreadID)
	assert.Equal(t, "scheduling", res.Domain)
	assert.Equal(t, "reporting", res.AgentName)
	assert.Equal(t, string(models.RiskMedium), res.RiskLevel)
	require.Len(t, res.Invocations, 2)
	assert.NotEmpty(t, res.AffectedEquip)
}

func TestCapabilities_ReflectWiring(t *testing.T) {
	log := logger.NewTestLogger(t)
	analysisCfg := testAnalysisConfig()

	o := New(Options{
		Classifier: intent.NewClassifier(log),
		Registry:   registry.Default(),
		Agents: []agents.Agent{
			scheduler.NewHandler(scheduler.LoadConfig(), seedStore(), nil, analysisCfg, log),
		},
		Reporter: reporting.NewHandler(reporting.LoadConfig(), analysisCfg, log),
	}, log)

	caps := o.Capabilities()
	byID := map[string]Capability{}
	for _, c := range caps {
		byID[c.ID] = c
	}

	assert.True(t, byID["scheduler"].Available)
	assert.True(t, byID["reporting"].Available)
	assert.False(t, byID["tariff"].Available)
}
