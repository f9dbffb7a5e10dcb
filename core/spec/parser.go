package spec

import (
	"fmt"

	"content-orchestrator/core/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WorkflowSpec represents the YAML workflow specification
type WorkflowSpec struct {
	Workflow WorkflowSpecBody `yaml:"workflow"`
}

// WorkflowSpecBody represents the workflow section of the spec
type WorkflowSpecBody struct {
	Operation     string                 `yaml:"operation"`
	AccountID     string                 `yaml:"account_id"`
	Category      string                 `yaml:"category"`
	Requirements  string                 `yaml:"requirements"`
	Audience      map[string]interface{} `yaml:"audience"`
	Keywords      []string               `yaml:"keywords"`
	ReferenceURLs []string               `yaml:"reference_urls"`
	Extra         map[string]interface{} `yaml:"extra"`
}

// ParseWorkflowSpec parses a YAML workflow specification into a job input
func ParseWorkflowSpec(specYAML string) (models.JobInput, error) {
	var spec WorkflowSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return models.JobInput{}, errors.Wrap(err, "failed to parse YAML")
	}

	body := spec.Workflow
	if body.Operation == "" {
		return models.JobInput{}, fmt.Errorf("workflow.operation is required")
	}
	if body.Requirements == "" {
		return models.JobInput{}, fmt.Errorf("workflow.requirements is required")
	}

	input := models.JobInput{
		OperationType:  models.OperationType(body.Operation),
		AccountID:      body.AccountID,
		Category:       body.Category,
		Requirements:   body.Requirements,
		TargetAudience: body.Audience,
		Keywords:       body.Keywords,
		ReferenceURLs:  body.ReferenceURLs,
		AdditionalData: body.Extra,
	}

	// Set defaults
	if input.Category == "" {
		input.Category = "general"
	}

	return input, nil
}
