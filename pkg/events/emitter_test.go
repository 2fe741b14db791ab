package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/models"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAgentEvent(ctx context.Context, event *kafka.AgentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestEmitter_EmitAgentCreated(t *testing.T) {
	publisher := &mockPublisher{}
	emitter := NewEmitter(publisher, logging.Nop())

	var published *kafka.AgentEvent
	publisher.On("PublishAgentEvent", mock.Anything, mock.AnythingOfType("*kafka.AgentEvent")).
		Run(func(args mock.Arguments) { published = args.Get(1).(*kafka.AgentEvent) }).
		Return(nil)

	ctx := appctx.SetRequestID(context.Background(), "req-1")
	ctx = appctx.SetOperatorID(ctx, "operator-7")
	agent := &models.Agent{ID: "a-1", Identity: models.Identity{LastName: "Mukendi", FirstName: "Jean"}}

	require.NoError(t, emitter.EmitAgentCreated(ctx, agent))
	publisher.AssertExpectations(t)

	require.NotNil(t, published)
	assert.Equal(t, string(EventTypeAgentCreated), published.EventType)
	assert.Equal(t, SchemaVersion, published.SchemaVersion)
	assert.Equal(t, "a-1", published.AgentID)
	assert.Equal(t, "req-1", published.CorrelationID)

	var data AgentChangedData
	require.NoError(t, json.Unmarshal(published.Data, &data))
	assert.Equal(t, "Mukendi", data.Agent.LastName)
	assert.Equal(t, "operator-7", data.OperatorID)
}

func TestEmitter_PublishError(t *testing.T) {
	publisher := &mockPublisher{}
	emitter := NewEmitter(publisher, logging.Nop())
	brokerDown := errors.New("broker down")

	publisher.On("PublishAgentEvent", mock.Anything, mock.Anything).Return(brokerDown)

	err := emitter.EmitAgentUpdated(context.Background(), &models.Agent{ID: "a-1"}, []string{"phone"})
	assert.ErrorIs(t, err, brokerDown)
}

func TestEmitter_Disabled(t *testing.T) {
	emitter := NewEmitter(nil, logging.Nop())
	assert.False(t, emitter.Enabled())

	assert.NoError(t, emitter.EmitAgentCreated(context.Background(), &models.Agent{ID: "a-1"}))
	assert.NoError(t, emitter.EmitImportChecked(context.Background(), ImportCheckedData{Agents: 3}))

	var nilEmitter *Emitter
	assert.False(t, nilEmitter.Enabled())
}

func TestChangedFields(t *testing.T) {
	before := &models.Agent{
		Identity:  models.Identity{LastName: "Mukendi", FirstName: "Jean"},
		Contact:   models.Contact{Phone: "0999123456"},
		Documents: []models.Document{{DocumentType: "Passport", DocumentNumber: "OP1"}},
	}

	after := *before
	after.Documents = []models.Document{{DocumentType: "Passport", DocumentNumber: "OP2"}}
	after.Phone = "+243999123456"
	after.Email = "jean@rdc.cd"

	assert.Equal(t, []string{"email", "phone", "documents"}, ChangedFields(before, &after))
	assert.Empty(t, ChangedFields(before, before))
}
