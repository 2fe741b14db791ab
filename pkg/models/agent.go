package models

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Identity holds the naming attributes of an agent
type Identity struct {
	LastName   string `json:"last_name" db:"last_name" validate:"required"`
	MiddleName string `json:"middle_name,omitempty" db:"middle_name"`
	FirstName  string `json:"first_name" db:"first_name" validate:"required"`
}

// Contact holds the reachability attributes of an agent
type Contact struct {
	Email string `json:"email,omitempty" db:"email"`
	Phone string `json:"phone,omitempty" db:"phone"`
}

// Professional holds the employment attributes of an agent
type Professional struct {
	ExternalID     string `json:"external_id,omitempty" db:"external_id"`
	PositionName   string `json:"position_name,omitempty" db:"position_name"`
	DepartmentName string `json:"department_name,omitempty" db:"department_name"`
}

// Document is an identity document held by an agent (passport, national id, ...)
type Document struct {
	DocumentType   string `json:"document_type" db:"document_type" validate:"required"`
	DocumentNumber string `json:"document_number" db:"document_number" validate:"required"`
}

// Agent is an employee record. It is the unit of duplicate detection.
// Field order matches schema: id, last_name, middle_name, first_name, email, phone, ...
type Agent struct {
	ID           string `json:"id" db:"id"`
	Identity     `json:"identity"`
	Contact      `json:"contact"`
	Professional `json:"professional"`
	Documents    []Document `json:"documents,omitempty" db:"-" validate:"dive"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the agent's name as "LAST Middle First", skipping empty parts
func (a *Agent) FullName() string {
	name := a.LastName
	for _, part := range []string{a.MiddleName, a.FirstName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// MergeFrom copies every non-empty field of other onto the agent. Documents are
// added when the agent has no document of the same type yet; existing ones are replaced.
// Types are compared after normalizers.Normalize, as the matcher compares them.
// Identifiers and timestamps are left untouched.
func (a *Agent) MergeFrom(other *Agent) {
	setIfPresent(&a.LastName, other.LastName)
	setIfPresent(&a.MiddleName, other.MiddleName)
	setIfPresent(&a.FirstName, other.FirstName)
	setIfPresent(&a.Email, other.Email)
	setIfPresent(&a.Phone, other.Phone)
	setIfPresent(&a.ExternalID, other.ExternalID)
	setIfPresent(&a.PositionName, other.PositionName)
	setIfPresent(&a.DepartmentName, other.DepartmentName)

	for _, doc := range other.Documents {
		docType := normalizers.Normalize(doc.DocumentType)
		replaced := false
		for i := range a.Documents {
			if normalizers.Normalize(a.Documents[i].DocumentType) == docType {
				a.Documents[i].DocumentNumber = doc.DocumentNumber
				replaced = true
				break
			}
		}
		if !replaced {
			a.Documents = append(a.Documents, doc)
		}
	}
}

func setIfPresent(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// AgentListResponse is the response for listing agents
type AgentListResponse struct {
	Items      []Agent `json:"items"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}
