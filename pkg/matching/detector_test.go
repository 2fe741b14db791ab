package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestDetector(config DetectorConfig) *Detector {
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	return NewDetector(logger, NewClassifier(DefaultConfig()), config)
}

// referencePool has no cross-pair between its members and referenceIncoming
// that triggers a category, except the intended one for each incoming agent.
func referencePool() []models.Agent {
	return []models.Agent{
		{ID: "e1", Identity: models.Identity{LastName: "Mukendi", FirstName: "Jean"}, Contact: models.Contact{Email: "jean.mukendi@rdc.cd"}},
		{ID: "e2", Identity: models.Identity{LastName: "Kabila", FirstName: "Odette"}, Documents: []models.Document{{DocumentType: "Passport", DocumentNumber: "OP1234567"}}},
		{ID: "e3", Identity: models.Identity{LastName: "Tshisekedi", FirstName: "Félix"}, Professional: models.Professional{ExternalID: "MAT-0042"}},
		{ID: "e4", Identity: models.Identity{LastName: "Ngalula", FirstName: "Bernadette"}},
		{ID: "e5", Identity: models.Identity{LastName: "Ilunga", FirstName: "Patrice"}, Contact: models.Contact{Phone: "+243 815 550 001"}},
	}
}

func referenceIncoming() []models.Agent {
	return []models.Agent{
		{Identity: models.Identity{LastName: "Mukendy", FirstName: "Jean"}},
		{Identity: models.Identity{LastName: "Kabilla", FirstName: "Odette"}},
		{Identity: models.Identity{LastName: "Lumumba", FirstName: "Félix"}, Professional: models.Professional{ExternalID: "mat 0042"}},
		{Identity: models.Identity{LastName: "Ngalula", FirstName: "Bernadete"}, Contact: models.Contact{Email: "b.ngalula@rdc.cd"}},
		{Identity: models.Identity{LastName: "Zola", FirstName: "Maurice"}},
		{Identity: models.Identity{LastName: "Mwamba", FirstName: "Odile"}, Documents: []models.Document{{DocumentType: "passport", DocumentNumber: "OP 1234567"}}},
		{Identity: models.Identity{LastName: "Kasongo", FirstName: "Jeanne"}, Contact: models.Contact{Email: "jean.mukendi@rdc.cd"}},
		{Identity: models.Identity{LastName: "Banza", FirstName: "Patrick"}, Contact: models.Contact{Phone: "0815550001"}},
	}
}

func TestDetector_Detect(t *testing.T) {
	detector := newTestDetector(DetectorConfig{})

	annotated, err := detector.Detect(context.Background(), referenceIncoming(), referencePool())
	require.NoError(t, err)
	require.Len(t, annotated, 8)

	expected := []struct {
		matchedID   string
		isDuplicate bool
		reason      string
	}{
		{matchedID: "e1", isDuplicate: true, reason: "Identity similar (96%)"},
		{matchedID: "e2", isDuplicate: true, reason: "Identity similar (98%)"},
		{matchedID: "e3", isDuplicate: true, reason: "Professional similar (100%)"},
		{matchedID: "e4", isDuplicate: true, reason: "Identity similar (99%)"},
		{},
		{matchedID: "e2", isDuplicate: true, reason: "Documents similar (100%)"},
		{matchedID: "e1", isDuplicate: true, reason: "Contact similar (100%)"},
		{matchedID: "e5", isDuplicate: true, reason: "Contact similar (90%)"},
	}

	for i, want := range expected {
		got := annotated[i]
		assert.Equal(t, referenceIncoming()[i].LastName, got.Agent.LastName, "order preserved")
		assert.Equal(t, want.isDuplicate, got.IsDuplicate, got.Agent.LastName)
		assert.Equal(t, want.reason, got.DuplicateReason, got.Agent.LastName)
		if want.matchedID == "" {
			assert.Nil(t, got.MatchedRecordID, got.Agent.LastName)
			assert.Equal(t, 0.0, got.DuplicateScore)
			continue
		}
		require.NotNil(t, got.MatchedRecordID, got.Agent.LastName)
		assert.Equal(t, want.matchedID, *got.MatchedRecordID, got.Agent.LastName)
	}
}

func TestDetector_JoinsReasons(t *testing.T) {
	detector := newTestDetector(DetectorConfig{})
	pool := []models.Agent{{ID: "e1", Identity: models.Identity{LastName: "Mukendi", FirstName: "Jean"}, Contact: models.Contact{Email: "jean.mukendi@rdc.cd"}}}
	incoming := []models.Agent{{Identity: models.Identity{LastName: "Mukendy", FirstName: "Jean"}, Contact: models.Contact{Email: "jean.mukendi@rdc.cd"}}}

	annotated, err := detector.Detect(context.Background(), incoming, pool)
	require.NoError(t, err)
	require.Len(t, annotated, 1)

	assert.Equal(t, "Identity similar (96%), Contact similar (100%)", annotated[0].DuplicateReason)
	assert.InDelta(t, 0.9754, annotated[0].DuplicateScore, 0.0001)
}

func TestDetector_Cardinality(t *testing.T) {
	detector := newTestDetector(DetectorConfig{})

	t.Run("empty pool", func(t *testing.T) {
		annotated, err := detector.Detect(context.Background(), referenceIncoming(), nil)
		require.NoError(t, err)
		require.Len(t, annotated, len(referenceIncoming()))
		for _, a := range annotated {
			assert.False(t, a.IsDuplicate)
			assert.Nil(t, a.MatchedRecordID)
			assert.Empty(t, a.DuplicateReason)
		}
	})

	t.Run("no new agents", func(t *testing.T) {
		annotated, err := detector.Detect(context.Background(), nil, referencePool())
		require.NoError(t, err)
		assert.Empty(t, annotated)
	})

	t.Run("pool is not modified", func(t *testing.T) {
		pool := referencePool()
		_, err := detector.Detect(context.Background(), referenceIncoming(), pool)
		require.NoError(t, err)
		assert.Equal(t, referencePool(), pool)
	})
}

func TestDetector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			detector := newTestDetector(DetectorConfig{Workers: workers})
			annotated, err := detector.Detect(ctx, referenceIncoming(), referencePool())
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, annotated)
		})
	}
}

func fakePool(faker *gofakeit.Faker, size int) []models.Agent {
	departments := []string{"Finances", "Ressources Humaines", "Logistique", "Informatique", "Juridique"}
	pool := make([]models.Agent, size)
	for i := range pool {
		pool[i] = models.Agent{
			ID: fmt.Sprintf("agent-%03d", i),
			Identity: models.Identity{
				LastName:  faker.LastName(),
				FirstName: faker.FirstName(),
			},
			Contact: models.Contact{
				Email: faker.Email(),
				Phone: faker.Phone(),
			},
			Professional: models.Professional{
				ExternalID:     faker.Numerify("MAT-####"),
				PositionName:   faker.JobTitle(),
				DepartmentName: departments[faker.Number(0, len(departments)-1)],
			},
		}
	}
	return pool
}

// fakeIncoming copies some pool agents with a typo in the first name and adds unrelated ones
func fakeIncoming(faker *gofakeit.Faker, pool []models.Agent, size int) []models.Agent {
	incoming := make([]models.Agent, size)
	for i := range incoming {
		if i%2 == 0 && len(pool) > 0 {
			source := pool[faker.Number(0, len(pool)-1)]
			source.ID = ""
			source.FirstName += "e"
			incoming[i] = source
			continue
		}
		incoming[i] = models.Agent{
			Identity: models.Identity{LastName: faker.LastName(), FirstName: faker.FirstName()},
			Contact:  models.Contact{Phone: faker.Phone()},
		}
	}
	return incoming
}

func TestDetector_Deterministic(t *testing.T) {
	faker := gofakeit.New(42)
	pool := fakePool(faker, 200)
	incoming := fakeIncoming(faker, pool, 60)

	sequential := newTestDetector(DetectorConfig{Workers: 1})
	first, err := sequential.Detect(context.Background(), incoming, pool)
	require.NoError(t, err)
	second, err := sequential.Detect(context.Background(), incoming, pool)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parallel := newTestDetector(DetectorConfig{Workers: 8})
	concurrent, err := parallel.Detect(context.Background(), incoming, pool)
	require.NoError(t, err)
	assert.Equal(t, first, concurrent)

	duplicates := 0
	for _, a := range first {
		if a.IsDuplicate {
			duplicates++
		}
	}
	assert.Positive(t, duplicates)
}

func TestDetector_BlockingMatchesFullScan(t *testing.T) {
	full := newTestDetector(DetectorConfig{})
	blocked := newTestDetector(DetectorConfig{Blocking: true})

	expected, err := full.Detect(context.Background(), referenceIncoming(), referencePool())
	require.NoError(t, err)

	actual, err := blocked.Detect(context.Background(), referenceIncoming(), referencePool())
	require.NoError(t, err)

	assert.Equal(t, expected, actual)
}
