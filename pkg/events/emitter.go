// Package events handles event emission for agent lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Publisher sends events to the broker. *kafka.Producer implements it.
type Publisher interface {
	PublishAgentEvent(ctx context.Context, event *kafka.AgentEvent) error
}

// Emitter handles event emission for Clover. A nil publisher disables emission.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// Enabled reports whether events are sent anywhere
func (e *Emitter) Enabled() bool {
	return e != nil && e.publisher != nil
}

// EmitAgentCreated emits an agent created event
func (e *Emitter) EmitAgentCreated(ctx context.Context, agent *models.Agent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAgentCreated")
	defer span.End()

	return e.emit(ctx, EventTypeAgentCreated, agent.ID, AgentChangedData{
		Agent:      *agent,
		OperatorID: appctx.GetOperatorID(ctx),
	})
}

// EmitAgentUpdated emits an agent updated event
func (e *Emitter) EmitAgentUpdated(ctx context.Context, agent *models.Agent, changedFields []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAgentUpdated")
	defer span.End()

	return e.emit(ctx, EventTypeAgentUpdated, agent.ID, AgentChangedData{
		Agent:         *agent,
		OperatorID:    appctx.GetOperatorID(ctx),
		ChangedFields: changedFields,
	})
}

// EmitImportChecked emits the summary of a checked batch
func (e *Emitter) EmitImportChecked(ctx context.Context, data ImportCheckedData) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitImportChecked")
	defer span.End()

	return e.emit(ctx, EventTypeImportChecked, "", data)
}

func (e *Emitter) emit(ctx context.Context, eventType EventType, agentID string, payload any) error {
	if !e.Enabled() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.AgentEvent{
		EventType:     string(eventType),
		SchemaVersion: SchemaVersion,
		AgentID:       agentID,
		CorrelationID: appctx.GetRequestID(ctx),
		Data:          data,
	}

	if err := e.publisher.PublishAgentEvent(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "ok").Inc()
	return nil
}
