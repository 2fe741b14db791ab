package matching

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const (
	CategoryIdentity     = "identity"
	CategoryContact      = "contact"
	CategoryProfessional = "professional"
	CategoryDocuments    = "documents"
)

const (
	identityLastNameWeight  = 0.7
	identityFirstNameWeight = 0.3

	// phoneSuffixScore is the contact sub-score for two numbers where one is a
	// suffix of the other (same subscriber, different country or trunk prefix)
	phoneSuffixScore = 0.9
	// phoneMinSuffixLen is the shortest number accepted for the suffix rule
	phoneMinSuffixLen = 6
)

// FieldComparator scores one category of attributes between two agents.
// Scores are in [0, 1]; a comparator never fails.
type FieldComparator interface {
	Name() string
	Compare(a, b *models.Agent) float64
}

// IdentityComparator weighs last name over first name. Middle names are ignored.
type IdentityComparator struct{}

func (IdentityComparator) Name() string { return CategoryIdentity }

func (IdentityComparator) Compare(a, b *models.Agent) float64 {
	return identityLastNameWeight*Similarity(a.LastName, b.LastName) +
		identityFirstNameWeight*Similarity(a.FirstName, b.FirstName)
}

// ContactComparator averages the email and phone sub-scores that are available
// on both sides.
type ContactComparator struct{}

func (ContactComparator) Name() string { return CategoryContact }

func (ContactComparator) Compare(a, b *models.Agent) float64 {
	var scores averager
	if a.Email != "" && b.Email != "" {
		scores.add(Similarity(a.Email, b.Email))
	}
	if a.Phone != "" && b.Phone != "" {
		scores.add(PhoneSimilarity(a.Phone, b.Phone))
	}
	return scores.mean()
}

// PhoneSimilarity compares two phone numbers on their digits. When the shorter
// digit string has at least six digits and ends the longer one the pair scores
// 0.9. The same test is retried with leading zeros dropped, so "0999123456" and
// "+243999123456" are the same line. Otherwise the digit strings are scored
// with Similarity.
func PhoneSimilarity(a, b string) float64 {
	digitsA := normalizers.DigitsOnly(a)
	digitsB := normalizers.DigitsOnly(b)

	if isPhoneSuffix(digitsA, digitsB) ||
		isPhoneSuffix(strings.TrimLeft(digitsA, "0"), strings.TrimLeft(digitsB, "0")) {
		return phoneSuffixScore
	}

	return Similarity(digitsA, digitsB)
}

func isPhoneSuffix(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return len(a) >= phoneMinSuffixLen && strings.HasSuffix(b, a)
}

// ProfessionalComparator averages external id, position and department
// similarity over the fields present on both sides.
type ProfessionalComparator struct{}

func (ProfessionalComparator) Name() string { return CategoryProfessional }

func (ProfessionalComparator) Compare(a, b *models.Agent) float64 {
	pairs := [][2]string{
		{a.ExternalID, b.ExternalID},
		{a.PositionName, b.PositionName},
		{a.DepartmentName, b.DepartmentName},
	}

	var scores averager
	for _, pair := range pairs {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		scores.add(Similarity(pair[0], pair[1]))
	}
	return scores.mean()
}

// DocumentsComparator returns the best number similarity over every pair of
// documents of the same type. Documents whose type or number normalizes to ""
// are skipped.
type DocumentsComparator struct{}

func (DocumentsComparator) Name() string { return CategoryDocuments }

func (DocumentsComparator) Compare(a, b *models.Agent) float64 {
	best := 0.0
	for _, docA := range a.Documents {
		typeA := normalizers.Normalize(docA.DocumentType)
		if typeA == "" || normalizers.Normalize(docA.DocumentNumber) == "" {
			continue
		}
		for _, docB := range b.Documents {
			if normalizers.Normalize(docB.DocumentType) != typeA || normalizers.Normalize(docB.DocumentNumber) == "" {
				continue
			}
			best = max(best, Similarity(docA.DocumentNumber, docB.DocumentNumber))
		}
	}
	return best
}

type averager struct {
	sum   float64
	count int
}

func (a *averager) add(score float64) {
	a.sum += score
	a.count++
}

func (a *averager) mean() float64 {
	if a.count == 0 {
		return 0.0
	}
	return a.sum / float64(a.count)
}
