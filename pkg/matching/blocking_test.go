package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestBlockingIndex_Candidates(t *testing.T) {
	pool := referencePool()
	pointers := make([]*models.Agent, len(pool))
	for i := range pool {
		pointers[i] = &pool[i]
	}
	index := NewBlockingIndex(pointers)

	tests := []struct {
		name     string
		agent    models.Agent
		expected []int
	}{
		{name: "last name prefix", agent: models.Agent{Identity: models.Identity{LastName: "Mukendy"}}, expected: []int{0}},
		{name: "phone suffix", agent: models.Agent{Contact: models.Contact{Phone: "0815550001"}}, expected: []int{4}},
		{name: "email", agent: models.Agent{Contact: models.Contact{Email: "Jean.Mukendi@rdc.cd"}}, expected: []int{0}},
		{name: "external id", agent: models.Agent{Professional: models.Professional{ExternalID: "mat0042"}}, expected: []int{2}},
		{name: "document", agent: models.Agent{Documents: []models.Document{{DocumentType: "PASSPORT", DocumentNumber: "op-1234567"}}}, expected: []int{1}},
		{
			name: "several keys sorted and unique",
			agent: models.Agent{
				Identity: models.Identity{LastName: "Ilunga"},
				Contact:  models.Contact{Email: "jean.mukendi@rdc.cd", Phone: "+243815550001"},
			},
			expected: []int{0, 4},
		},
		{name: "no key", agent: models.Agent{Identity: models.Identity{LastName: "Zola"}}, expected: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, index.Candidates(&tt.agent))
		})
	}
}
