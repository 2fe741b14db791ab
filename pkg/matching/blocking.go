package matching

import (
	"slices"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const (
	lastNameBlockLen = 3
	phoneBlockLen    = 6
)

// BlockingIndex groups existing agents by cheap exact keys so a new agent is
// only compared with agents sharing at least one key. It is lossy: a pair
// with a typo in the first letters of the last name and nothing else in
// common is never compared.
type BlockingIndex struct {
	buckets map[string][]int
}

// NewBlockingIndex indexes the pool by position
func NewBlockingIndex(pool []*models.Agent) *BlockingIndex {
	idx := &BlockingIndex{buckets: make(map[string][]int)}
	for i, agent := range pool {
		for _, key := range blockingKeys(agent) {
			idx.buckets[key] = append(idx.buckets[key], i)
		}
	}
	return idx
}

// Candidates returns the pool positions sharing a key with the agent, in pool order
func (b *BlockingIndex) Candidates(agent *models.Agent) []int {
	seen := make(map[int]struct{})
	positions := []int{}
	for _, key := range blockingKeys(agent) {
		for _, pos := range b.buckets[key] {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			positions = append(positions, pos)
		}
	}
	slices.Sort(positions)
	return positions
}

func blockingKeys(agent *models.Agent) []string {
	keys := []string{}

	if lastName := normalizers.Normalize(agent.LastName); lastName != "" {
		keys = append(keys, "ln:"+prefix(lastName, lastNameBlockLen))
	}

	if phone := normalizers.DigitsOnly(agent.Phone); len(phone) >= phoneBlockLen {
		keys = append(keys, "ph:"+phone[len(phone)-phoneBlockLen:])
	}

	if email := normalizers.Normalize(agent.Email); email != "" {
		keys = append(keys, "em:"+email)
	}

	if externalID := normalizers.Normalize(agent.ExternalID); externalID != "" {
		keys = append(keys, "ext:"+externalID)
	}

	for _, doc := range agent.Documents {
		number := normalizers.Normalize(doc.DocumentNumber)
		if number == "" {
			continue
		}
		keys = append(keys, "doc:"+normalizers.Normalize(doc.DocumentType)+":"+number)
	}

	return keys
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
