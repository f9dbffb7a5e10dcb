package models

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further mutation.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// OperationType represents the type of content operation a job runs
type OperationType string

const (
	OpAccountSetup       OperationType = "account_setup"
	OpCompetitorAnalysis OperationType = "competitor_analysis"
	OpContentCreation    OperationType = "content_creation"
	OpComplianceCheck    OperationType = "compliance_check"
	OpPublication        OperationType = "publication"
	OpFullFlow           OperationType = "full_flow"
)

// JobInput is the request payload supplied at submission. Immutable after
// creation; the tracker hands copies out, never the original.
type JobInput struct {
	OperationType  OperationType          `json:"operation_type" yaml:"operation"`
	AccountID      string                 `json:"account_id,omitempty" yaml:"account_id"`
	Category       string                 `json:"category" yaml:"category"`
	Requirements   string                 `json:"requirements" yaml:"requirements"`
	TargetAudience map[string]interface{} `json:"target_audience,omitempty" yaml:"audience"`
	Keywords       []string               `json:"keywords,omitempty" yaml:"keywords"`
	ReferenceURLs  []string               `json:"reference_urls,omitempty" yaml:"reference_urls"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty" yaml:"additional_data"`
}

// Clone returns a deep copy. Nested maps and slices are copied too, so the
// tracker and its callers never share mutable state through an input.
func (in JobInput) Clone() JobInput {
	out := in
	if in.Keywords != nil {
		out.Keywords = append([]string(nil), in.Keywords...)
	}
	if in.ReferenceURLs != nil {
		out.ReferenceURLs = append([]string(nil), in.ReferenceURLs...)
	}
	out.TargetAudience = cloneValueMap(in.TargetAudience)
	out.AdditionalData = cloneValueMap(in.AdditionalData)
	return out
}

func cloneValueMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneValueMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}
