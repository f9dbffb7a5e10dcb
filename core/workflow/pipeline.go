package workflow

import (
	"context"
	"fmt"
	"sync"

	"content-orchestrator/core/models"
)

// StageFunc runs one step of a workflow pipeline. prior holds the outputs of
// the stages that already ran, keyed by stage name. Implementations must
// honor ctx cancellation; the executor cancels it on timeout or interrupt.
type StageFunc func(ctx context.Context, input models.JobInput, prior map[string]interface{}) (map[string]interface{}, error)

// Stage is a named pipeline step.
type Stage struct {
	Name string
	Run  StageFunc
}

// Pipeline is the ordered stage sequence for one operation type.
type Pipeline struct {
	Operation models.OperationType
	Stages    []Stage
}

// Registry maps operation types to pipelines. Hosts replace or extend the
// built-in pipelines by registering their own before starting the executor.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[models.OperationType]Pipeline
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[models.OperationType]Pipeline)}
}

// Register adds or replaces the pipeline for its operation type.
func (r *Registry) Register(p Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[p.Operation] = p
}

// For returns the pipeline for an operation type.
func (r *Registry) For(op models.OperationType) (Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pipelines[op]
	if !ok {
		return Pipeline{}, fmt.Errorf("unsupported operation type: %s", op)
	}
	return p, nil
}

// DefaultRegistry returns a registry with the built-in pipelines for every
// supported operation type. The full flow chains market analysis into
// content creation, compliance and publication planning.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(Pipeline{
		Operation: models.OpAccountSetup,
		Stages: []Stage{
			{Name: "persona_profile", Run: PersonaProfile},
		},
	})
	r.Register(Pipeline{
		Operation: models.OpCompetitorAnalysis,
		Stages: []Stage{
			{Name: "competitor_scan", Run: CompetitorScan},
			{Name: "trend_digest", Run: TrendDigest},
		},
	})
	r.Register(Pipeline{
		Operation: models.OpContentCreation,
		Stages: []Stage{
			{Name: "trend_digest", Run: TrendDigest},
			{Name: "content_draft", Run: ContentDraft},
		},
	})
	r.Register(Pipeline{
		Operation: models.OpComplianceCheck,
		Stages: []Stage{
			{Name: "compliance_scan", Run: ComplianceScan},
		},
	})
	r.Register(Pipeline{
		Operation: models.OpPublication,
		Stages: []Stage{
			{Name: "compliance_scan", Run: ComplianceScan},
			{Name: "publication_plan", Run: PublicationPlan},
		},
	})
	r.Register(Pipeline{
		Operation: models.OpFullFlow,
		Stages: []Stage{
			{Name: "competitor_scan", Run: CompetitorScan},
			{Name: "trend_digest", Run: TrendDigest},
			{Name: "content_draft", Run: ContentDraft},
			{Name: "compliance_scan", Run: ComplianceScan},
			{Name: "publication_plan", Run: PublicationPlan},
		},
	})

	return r
}
