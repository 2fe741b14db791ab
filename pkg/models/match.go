package models

// CategoryResult is the score of one comparison category for a (new, candidate) pair
type CategoryResult struct {
	Category  string  `json:"category"`
	Score     float64 `json:"score"`
	Triggered bool    `json:"triggered"`
}

// MatchOutcome is the classification of one new agent against the whole pool.
// MatchedRecordID references the best candidate and is nil when no category
// triggered for any candidate.
type MatchOutcome struct {
	IsDuplicate      bool     `json:"is_duplicate"`
	Confidence       float64  `json:"confidence"`
	TriggeredReasons []string `json:"triggered_reasons"`
	MatchedRecordID  *string  `json:"matched_record_id,omitempty"`
}

// AnnotatedAgent is a new agent carrying its duplicate classification
type AnnotatedAgent struct {
	Agent           Agent   `json:"agent"`
	IsDuplicate     bool    `json:"is_duplicate"`
	DuplicateScore  float64 `json:"duplicate_score"`
	DuplicateReason string  `json:"duplicate_reason"`
	MatchedRecordID *string `json:"matched_record_id,omitempty"`
}

// CheckDuplicatesRequest is the request to classify agents against the stored pool
type CheckDuplicatesRequest struct {
	Agents []Agent `json:"agents" validate:"required,min=1,dive"`
}

// CheckDuplicatesResponse carries one annotated agent per requested agent, in order
type CheckDuplicatesResponse struct {
	Agents     []AnnotatedAgent `json:"agents"`
	Duplicates int              `json:"duplicates"`
	PoolSize   int              `json:"pool_size"`
}
