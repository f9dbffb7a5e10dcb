package workflow

import (
	"context"
	"testing"

	"content-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCoversAllOperations(t *testing.T) {
	registry := DefaultRegistry()

	ops := []models.OperationType{
		models.OpAccountSetup,
		models.OpCompetitorAnalysis,
		models.OpContentCreation,
		models.OpComplianceCheck,
		models.OpPublication,
		models.OpFullFlow,
	}
	for _, op := range ops {
		pipeline, err := registry.For(op)
		require.NoError(t, err, "operation %s", op)
		assert.NotEmpty(t, pipeline.Stages, "operation %s", op)
	}
}

func TestRegistryUnknownOperation(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.For("video_editing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operation type")
}

func TestRegisterReplacesPipeline(t *testing.T) {
	registry := DefaultRegistry()
	registry.Register(Pipeline{
		Operation: models.OpContentCreation,
		Stages:    []Stage{{Name: "custom", Run: ContentDraft}},
	})

	pipeline, err := registry.For(models.OpContentCreation)
	require.NoError(t, err)
	require.Len(t, pipeline.Stages, 1)
	assert.Equal(t, "custom", pipeline.Stages[0].Name)
}

func TestContentDraftUsesKeywords(t *testing.T) {
	out, err := ContentDraft(context.Background(), models.JobInput{
		Category:     "beauty",
		Requirements: "spring skincare series",
		Keywords:     []string{"sunscreen", "spf"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "beauty | sunscreen", out["title"])
	assert.Equal(t, "spring skincare series", out["brief"])
}

func TestComplianceScanFlagsBannedTerms(t *testing.T) {
	_, err := ComplianceScan(context.Background(), models.JobInput{
		Requirements: "a guaranteed miracle cream",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guaranteed")
	assert.Contains(t, err.Error(), "miracle")
}

func TestComplianceScanChecksDraftFromPriorStages(t *testing.T) {
	prior := map[string]interface{}{
		"content_draft": map[string]interface{}{
			"title": "The CURE for dull skin",
			"brief": "clean copy",
		},
	}
	_, err := ComplianceScan(context.Background(), models.JobInput{Requirements: "clean"}, prior)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cure")
}

func TestComplianceScanPassesCleanCopy(t *testing.T) {
	out, err := ComplianceScan(context.Background(), models.JobInput{
		Requirements: "gentle daily moisturizer for sensitive skin",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, out["compliant"])
}

func TestCompetitorScanFallsBackToKeywords(t *testing.T) {
	out, err := CompetitorScan(context.Background(), models.JobInput{
		Category: "beauty",
		Keywords: []string{"sunscreen"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out["count"])
}

func TestStagesHonorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := models.JobInput{Requirements: "x"}
	for name, fn := range map[string]StageFunc{
		"persona_profile":  PersonaProfile,
		"competitor_scan":  CompetitorScan,
		"trend_digest":     TrendDigest,
		"content_draft":    ContentDraft,
		"compliance_scan":  ComplianceScan,
		"publication_plan": PublicationPlan,
	} {
		_, err := fn(ctx, input, nil)
		assert.ErrorIs(t, err, context.Canceled, "stage %s", name)
	}
}
