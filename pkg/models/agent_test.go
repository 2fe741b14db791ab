package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgent_MergeFrom(t *testing.T) {
	t.Run("non-empty fields win", func(t *testing.T) {
		agent := Agent{
			ID:       "a-1",
			Identity: Identity{LastName: "Mukendi", FirstName: "Jean"},
			Contact:  Contact{Email: "jean@rdc.cd"},
		}
		agent.MergeFrom(&Agent{
			ID:      "ignored",
			Contact: Contact{Phone: "0999123456"},
		})

		assert.Equal(t, "a-1", agent.ID)
		assert.Equal(t, "Mukendi", agent.LastName)
		assert.Equal(t, "jean@rdc.cd", agent.Email)
		assert.Equal(t, "0999123456", agent.Phone)
	})

	t.Run("document type matched after normalization", func(t *testing.T) {
		agent := Agent{Documents: []Document{{DocumentType: "Passport", DocumentNumber: "OP1"}}}
		agent.MergeFrom(&Agent{Documents: []Document{{DocumentType: "passport", DocumentNumber: "OP2"}}})

		assert.Equal(t, []Document{{DocumentType: "Passport", DocumentNumber: "OP2"}}, agent.Documents)
	})

	t.Run("new document type is appended", func(t *testing.T) {
		agent := Agent{Documents: []Document{{DocumentType: "Passport", DocumentNumber: "OP1"}}}
		agent.MergeFrom(&Agent{Documents: []Document{{DocumentType: "Permis", DocumentNumber: "P9"}}})

		assert.Len(t, agent.Documents, 2)
	})
}
