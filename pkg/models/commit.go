package models

// CommitAction is the operator's decision for one reviewed agent
type CommitAction string

const (
	CommitActionCreate CommitAction = "create" // Insert as a new agent
	CommitActionUpdate CommitAction = "update" // Merge into the matched agent
	CommitActionSkip   CommitAction = "skip"   // Discard the incoming agent
)

// CommitDecision pairs a reviewed agent with what to do with it
type CommitDecision struct {
	Action          CommitAction `json:"action" validate:"required,oneof=create update skip"`
	Agent           Agent        `json:"agent"`
	MatchedRecordID *string      `json:"matched_record_id,omitempty" validate:"required_if=Action update"`
}

// CommitRequest is the request to commit reviewed agents
type CommitRequest struct {
	Decisions []CommitDecision `json:"decisions" validate:"required,min=1,dive"`
}

// CommitSummary reports what a commit did
type CommitSummary struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Skipped int      `json:"skipped"`
}

// ImportWarning reports a spreadsheet row that could not be turned into an agent
type ImportWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResponse is the annotated result of an uploaded file, ready for review
type ImportResponse struct {
	FileName   string           `json:"file_name"`
	Agents     []AnnotatedAgent `json:"agents"`
	Warnings   []ImportWarning  `json:"warnings"`
	Duplicates int              `json:"duplicates"`
	PoolSize   int              `json:"pool_size"`
}
