// Package orchestrator drives one query through its agent pipeline:
// classify, route via the registry, run the tiers, aggregate, seal.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"supplyguard/internal/agents"
	"supplyguard/internal/agents/reporting"
	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/metrics"
	"supplyguard/internal/common/observability"
	"supplyguard/internal/intent"
	"supplyguard/internal/models"
	"supplyguard/pkg/registry"
)

// Archiver persists sealed threads. Failures are logged, never fatal.
type Archiver interface {
	Save(ctx context.Context, thread *models.ConversationThread) error
}

// Alerter is notified of verdicts that clear the critical threshold.
type Alerter interface {
	CriticalRisk(ctx context.Context, threadID string, verdict models.RiskScore) error
}

type Orchestrator struct {
	classifier   *intent.Classifier
	registry     *registry.PipelineRegistry
	agents       map[string]agents.Agent
	reporter     *reporting.Handler
	errHandler   *stderrors.ErrorHandler
	archive      Archiver
	alerter      Alerter
	obs          *observability.Observability
	agentTimeout time.Duration
	overall      time.Duration
	now          func() time.Time
	logger       logger.Logger
}

type Options struct {
	Classifier   *intent.Classifier
	Registry     *registry.PipelineRegistry
	Agents       []agents.Agent
	Reporter     *reporting.Handler
	Archive      Archiver
	Alerter      Alerter
	Obs          *observability.Observability
	AgentTimeout time.Duration
	Overall      time.Duration
	Now          func() time.Time
}

func New(opts Options, log logger.Logger) *Orchestrator {
	byID := make(map[string]agents.Agent, len(opts.Agents))
	for _, a := range opts.Agents {
		byID[a.ID()] = a
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 10 * time.Second
	}
	if opts.Overall <= 0 {
		opts.Overall = 30 * time.Second
	}
	return &Orchestrator{
		classifier:   opts.Classifier,
		registry:     opts.Registry,
		agents:       byID,
		reporter:     opts.Reporter,
		errHandler:   stderrors.NewErrorHandler(log),
		archive:      opts.Archive,
		alerter:      opts.Alerter,
		obs:          opts.Obs,
		agentTimeout: opts.AgentTimeout,
		overall:      opts.Overall,
		now:          opts.Now,
		logger:       log,
	}
}

// Process runs one query end to end and returns the sealed thread. The
// returned error is non-nil only for fatal conditions; agent-level
// failures are absorbed into the thread.
func (o *Orchestrator) Process(ctx context.Context, query models.Query) (*models.ConversationThread, error) {
	start := o.now()
	thread := models.NewConversationThread(uuid.NewString(), query, start)

	log := o.logger.With(map[string]interface{}{
		"threadId": thread.ID,
	})
	log.Info("thread opened", map[string]interface{}{
		"query": query.Text,
	})

	if err := thread.Transition(models.ThreadRouting); err != nil {
		return nil, err
	}
	queryIntent := o.classifier.Classify(query)
	thread.Intent = &queryIntent

	domain := string(queryIntent.Primary())
	matched := queryIntent.Domains()
	domains := make([]string, len(matched))
	for i, d := range matched {
		domains[i] = string(d)
	}
	roles := o.registry.PipelineForIntent(domains)

	if err := thread.Transition(models.ThreadRunning); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.overall)
	defer cancel()

	req := agents.Request{
		Query:    query,
		Entities: queryIntent.Entities,
		Now:      start,
	}

	var hasReporting bool
	var tiers [][]string
	tiers, hasReporting = buildTiers(roles)

	truncated := false
	for _, tier := range tiers {
		if ctx.Err() != nil {
			truncated = true
			break
		}
		if err := o.runTier(ctx, thread, tier, req); err != nil {
			o.fail(ctx, thread, domain, err, log)
			return nil, err
		}
		if ctx.Err() != nil {
			truncated = true
			break
		}
	}

	if err := thread.Transition(models.ThreadReporting); err != nil {
		return nil, err
	}
	verdict := o.finalVerdict(thread, hasReporting, truncated)

	if err := thread.Transition(models.ThreadClosed); err != nil {
		return nil, err
	}
	if err := thread.Seal(&verdict, o.now()); err != nil {
		return nil, err
	}

	metrics.PipelinesCompleted.WithLabelValues(domain).Inc()
	if o.obs != nil {
		o.obs.RecordThreadProcessed(ctx, string(models.ThreadClosed))
		o.obs.RecordThreadDuration(ctx, o.now().Sub(start), string(models.ThreadClosed))
	}

	o.afterSeal(thread, verdict, log)

	log.Info("thread sealed", map[string]interface{}{
		"domain":      domain,
		"invocations": len(thread.Invocations),
		"score":       verdict.Score,
		"level":       string(verdict.Level),
		"truncated":   truncated,
	})
	return thread, nil
}

// buildTiers splits the role list into sequential tiers: the leading
// agent runs alone, the remaining domain agents form one parallel tier,
// reporting is handled separately at the end.
func buildTiers(roles []string) ([][]string, bool) {
	hasReporting := false
	var working []string
	for _, r := range roles {
		if r == reporting.AgentID {
			hasReporting = true
			continue
		}
		working = append(working, r)
	}

	var tiers [][]string
	if len(working) > 0 {
		tiers = append(tiers, working[:1])
	}
	if len(working) > 1 {
		tiers = append(tiers, working[1:])
	}
	return tiers, hasReporting
}

// runTier executes one tier, in parallel when it holds more than one
// agent. A fatal error aborts the pipeline; anything else is recorded
// as a failed invocation and the tier completes.
func (o *Orchestrator) runTier(ctx context.Context, thread *models.ConversationThread, tier []string, req agents.Request) error {
	invs := make([]models.AgentInvocation, len(tier))
	fatals := make([]error, len(tier))

	var wg sync.WaitGroup
	for i, role := range tier {
		wg.Add(1)
		go func(i int, role string) {
			defer wg.Done()
			invs[i], fatals[i] = o.invoke(ctx, thread.ID, role, req)
		}(i, role)
	}
	wg.Wait()

	var fatal error
	for i, inv := range invs {
		if err := thread.Record(inv); err != nil {
			return err
		}
		if fatals[i] != nil {
			fatal = fatals[i]
		}
	}
	return fatal
}

// invoke runs a single agent with the per-agent timeout and maps its
// outcome to an invocation record. Non-fatal errors become a failed
// invocation carrying a zero-confidence fallback score.
func (o *Orchestrator) invoke(ctx context.Context, threadID, role string, req agents.Request) (models.AgentInvocation, error) {
	inv := models.AgentInvocation{
		AgentID:   role,
		Status:    models.InvocationRunning,
		StartedAt: o.now(),
	}

	agent, ok := o.agents[role]
	if !ok {
		inv.Status = models.InvocationFailed
		inv.Error = "agent not registered"
		inv.Result = fallbackScore(role)
		return inv, nil
	}

	metrics.AgentInvocationsActive.WithLabelValues(role).Inc()
	defer metrics.AgentInvocationsActive.WithLabelValues(role).Dec()

	agentCtx, cancel := context.WithTimeout(ctx, o.agentTimeout)
	defer cancel()

	timer := time.Now()
	score, err := agent.Analyze(agentCtx, req)
	inv.Duration = time.Since(timer)
	metrics.AgentDuration.WithLabelValues(role).Observe(inv.Duration.Seconds())

	if err == nil {
		inv.Status = models.InvocationSucceeded
		inv.Result = &score
		return inv, nil
	}

	if agentCtx.Err() != nil && ctx.Err() == nil {
		inv.Status = models.InvocationTimedOut
	} else {
		inv.Status = models.InvocationFailed
	}
	inv.Error = err.Error()
	inv.Result = fallbackScore(agent.AnalysisType())

	if fatal := o.errHandler.HandleAgentError(threadID, role, err); fatal {
		return inv, err
	}
	return inv, nil
}

func (o *Orchestrator) finalVerdict(thread *models.ConversationThread, hasReporting, truncated bool) models.RiskScore {
	if hasReporting {
		verdict := o.reporter.Report(thread.Invocations, truncated)
		inv := models.AgentInvocation{
			AgentID:   reporting.AgentID,
			Status:    models.InvocationSucceeded,
			Result:    &verdict,
			StartedAt: o.now(),
		}
		if err := thread.Record(inv); err != nil {
			o.logger.Error("recording report invocation", map[string]interface{}{"error": err.Error()})
		}
		return verdict
	}

	// Single-agent pipelines answer with that agent's own score.
	for i := len(thread.Invocations) - 1; i >= 0; i-- {
		if r := thread.Invocations[i].Result; r != nil {
			v := *r
			if truncated {
				v.Confidence = v.Confidence * 0.5
			}
			return v
		}
	}
	return *fallbackScore("general")
}

func (o *Orchestrator) fail(ctx context.Context, thread *models.ConversationThread, domain string, err error, log logger.Logger) {
	thread.Fail(o.now())
	metrics.PipelinesFailed.WithLabelValues(domain, string(stderrors.CodeOf(err))).Inc()
	if o.obs != nil {
		o.obs.RecordThreadProcessed(ctx, string(models.ThreadFailed))
	}
	if o.archive != nil {
		if archErr := o.archive.Save(context.WithoutCancel(ctx), thread); archErr != nil {
			log.Warn("archiving failed thread", map[string]interface{}{"error": archErr.Error()})
		}
	}
	log.Error("thread failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// afterSeal handles the audit and alerting side effects of a verdict.
// Both are best effort.
func (o *Orchestrator) afterSeal(thread *models.ConversationThread, verdict models.RiskScore, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.archive != nil {
		if err := o.archive.Save(ctx, thread); err != nil {
			log.Warn("archiving thread", map[string]interface{}{"error": err.Error()})
		}
	}
	if o.alerter != nil {
		if err := o.alerter.CriticalRisk(ctx, thread.ID, verdict); err != nil {
			log.Warn("sending risk alert", map[string]interface{}{"error": err.Error()})
		}
	}
}

// fallbackScore is the zero-confidence stand-in recorded for an agent
// that could not produce a result.
func fallbackScore(dimension string) *models.RiskScore {
	return &models.RiskScore{
		Dimension:  dimension,
		Score:      0,
		Level:      models.RiskLow,
		Summary:    "analysis unavailable",
		Confidence: 0,
		Provenance: models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"agent_error": true,
		},
	}
}
