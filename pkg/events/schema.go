package events

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeAgentCreated  EventType = "agent.created"
	EventTypeAgentUpdated  EventType = "agent.updated"
	EventTypeImportChecked EventType = "import.checked"
)

// AgentChangedData is the payload of agent.created and agent.updated
type AgentChangedData struct {
	Agent         models.Agent `json:"agent"`
	OperatorID    string       `json:"operator_id,omitempty"`
	ChangedFields []string     `json:"changed_fields,omitempty"`
}

// ImportCheckedData is the payload of import.checked: the outcome of one reviewed batch
type ImportCheckedData struct {
	FileName   string    `json:"file_name,omitempty"`
	Agents     int       `json:"agents"`
	Duplicates int       `json:"duplicates"`
	Warnings   int       `json:"warnings"`
	PoolSize   int       `json:"pool_size"`
	CheckedAt  time.Time `json:"checked_at"`
}

// ChangedFields lists the json names of the agent fields that differ between before and after
func ChangedFields(before, after *models.Agent) []string {
	fields := []struct {
		name          string
		before, after string
	}{
		{"last_name", before.LastName, after.LastName},
		{"middle_name", before.MiddleName, after.MiddleName},
		{"first_name", before.FirstName, after.FirstName},
		{"email", before.Email, after.Email},
		{"phone", before.Phone, after.Phone},
		{"external_id", before.ExternalID, after.ExternalID},
		{"position_name", before.PositionName, after.PositionName},
		{"department_name", before.DepartmentName, after.DepartmentName},
	}

	var changed []string
	for _, f := range fields {
		if f.before != f.after {
			changed = append(changed, f.name)
		}
	}
	if !sameDocuments(before.Documents, after.Documents) {
		changed = append(changed, "documents")
	}
	return changed
}

func sameDocuments(a, b []models.Document) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
