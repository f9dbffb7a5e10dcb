package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"content-orchestrator/core/models"
)

// Built-in stage implementations. They assemble structured outputs from the
// submitted input without any network or model calls; a host that runs real
// agent crews registers its own StageFuncs over these names.

// bannedTerms are flagged by the compliance scan. Mirrors the platform rules
// on absolute claims and medical efficacy wording.
var bannedTerms = []string{
	"guaranteed",
	"100% effective",
	"cure",
	"best in the world",
	"miracle",
}

// PersonaProfile derives an account persona outline from the audience and
// category hints.
func PersonaProfile(ctx context.Context, input models.JobInput, _ map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tone := "friendly"
	if v, ok := input.TargetAudience["tone"].(string); ok && v != "" {
		tone = v
	}

	return map[string]interface{}{
		"account_id": input.AccountID,
		"category":   input.Category,
		"tone":       tone,
		"audience":   input.TargetAudience,
		"pillars":    contentPillars(input),
	}, nil
}

// CompetitorScan builds one entry per reference URL, falling back to the
// keyword list when no references were supplied.
func CompetitorScan(ctx context.Context, input models.JobInput, _ map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	competitors := make([]map[string]interface{}, 0, len(input.ReferenceURLs))
	for _, url := range input.ReferenceURLs {
		competitors = append(competitors, map[string]interface{}{
			"source":   url,
			"category": input.Category,
		})
	}
	if len(competitors) == 0 {
		for _, kw := range input.Keywords {
			competitors = append(competitors, map[string]interface{}{
				"source":   fmt.Sprintf("search:%s", kw),
				"category": input.Category,
			})
		}
	}

	return map[string]interface{}{
		"competitors": competitors,
		"count":       len(competitors),
	}, nil
}

// TrendDigest summarizes the keyword set into ranked trend topics.
func TrendDigest(ctx context.Context, input models.JobInput, prior map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topics := make([]map[string]interface{}, 0, len(input.Keywords))
	for i, kw := range input.Keywords {
		topics = append(topics, map[string]interface{}{
			"topic": kw,
			"rank":  i + 1,
		})
	}

	out := map[string]interface{}{
		"category": input.Category,
		"topics":   topics,
	}
	if scan, ok := prior["competitor_scan"].(map[string]interface{}); ok {
		out["competitor_count"] = scan["count"]
	}
	return out, nil
}

// ContentDraft produces a title and body outline from the requirements and
// the trend digest.
func ContentDraft(ctx context.Context, input models.JobInput, prior map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := input.Category
	if len(input.Keywords) > 0 {
		title = fmt.Sprintf("%s | %s", input.Category, input.Keywords[0])
	}

	sections := []string{"hook", "body", "call_to_action"}
	if _, ok := prior["trend_digest"]; ok {
		sections = append([]string{"trend_context"}, sections...)
	}

	return map[string]interface{}{
		"title":    title,
		"sections": sections,
		"brief":    input.Requirements,
		"tags":     input.Keywords,
	}, nil
}

// ComplianceScan checks the draft and requirements against the banned-term
// list. A violation is a stage failure: non-compliant content must not reach
// publication.
func ComplianceScan(ctx context.Context, input models.JobInput, prior map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.ToLower(input.Requirements)
	if draft, ok := prior["content_draft"].(map[string]interface{}); ok {
		if title, ok := draft["title"].(string); ok {
			text += " " + strings.ToLower(title)
		}
		if brief, ok := draft["brief"].(string); ok {
			text += " " + strings.ToLower(brief)
		}
	}

	var violations []string
	for _, term := range bannedTerms {
		if strings.Contains(text, term) {
			violations = append(violations, term)
		}
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("compliance check failed: banned terms %s", strings.Join(violations, ", "))
	}

	return map[string]interface{}{
		"compliant": true,
		"checked":   len(bannedTerms),
	}, nil
}

// PublicationPlan proposes a posting slot for the approved content.
func PublicationPlan(ctx context.Context, input models.JobInput, prior map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slot := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	plan := map[string]interface{}{
		"account_id":   input.AccountID,
		"publish_at":   slot.Format(time.RFC3339),
		"channel":      "feed",
		"requires_ack": true,
	}
	if draft, ok := prior["content_draft"].(map[string]interface{}); ok {
		plan["title"] = draft["title"]
	}
	return plan, nil
}

func contentPillars(input models.JobInput) []string {
	pillars := make([]string, 0, len(input.Keywords)+1)
	if input.Category != "" {
		pillars = append(pillars, input.Category)
	}
	for _, kw := range input.Keywords {
		pillars = append(pillars, kw)
	}
	return pillars
}
