package pkg

import "time"

// RiskLevel is the coarse risk label echoed back from the provider reply.
// Only three values exist; anything the provider says that is neither
// "high" nor "low" collapses to Neutral.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "High Risk"
	RiskLow     RiskLevel = "Low Risk"
	RiskNeutral RiskLevel = "Neutral"
)

// UnknownDisease is reported when the reply carries no DISEASE: line.
const UnknownDisease = "Unknown Condition"

// AnalysisRequest is the body accepted by the analysis endpoint.
type AnalysisRequest struct {
	Symptoms string `json:"symptoms"`
}

// AnalysisResult is the structured reply of the analysis endpoint.  The
// field names match what the browser client already consumes, hence the
// camelCase fullResponse.
type AnalysisResult struct {
	Disease      string    `json:"disease" yaml:"disease"`
	Risk         RiskLevel `json:"risk" yaml:"risk"`
	Analysis     string    `json:"analysis" yaml:"analysis"`
	FullResponse string    `json:"fullResponse" yaml:"fullResponse"`
}

// ErrorCode classifies a failed analysis.  It travels next to the human
// readable message so callers do not have to match on text.
type ErrorCode string

const (
	CodeMissingInput  ErrorCode = "missing_input"
	CodeMisconfigured ErrorCode = "misconfigured"
	CodeProviderError ErrorCode = "provider_error"
)

// ErrorResponse is the body of every non-200 answer from the endpoint.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code,omitempty"`
}

// MessageRole describes who authored a transcript message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one line of the client-side conversation transcript.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChatEntry summarises one past analysis in the client history list.
// Date holds the label computed when the entry was created ("Today");
// renderers may recompute it from CreatedAt.
type ChatEntry struct {
	Date      string    `json:"date" yaml:"date"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Disease   string    `json:"disease" yaml:"disease"`
	Risk      RiskLevel `json:"risk" yaml:"risk"`
	Symptoms  string    `json:"symptoms" yaml:"symptoms"`
}

// AnalysisRecord is a journalled analysis as stored by the optional
// operator journal.
type AnalysisRecord struct {
	ID        string    `json:"id"`
	Symptoms  string    `json:"symptoms"`
	Disease   string    `json:"disease"`
	Risk      RiskLevel `json:"risk"`
	Analysis  string    `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}
