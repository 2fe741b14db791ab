package graph

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// StatementRunner executes Cypher statements in one transaction. *Client implements it.
type StatementRunner interface {
	RunStatements(ctx context.Context, statements []Statement) error
}

// Projector keeps (:Agent)-[:WORKS_IN]->(:Department) and (:Agent)-[:HOLDS]->(:Position)
// in sync with stored agents. A nil runner disables projection.
type Projector struct {
	runner StatementRunner
	logger ectologger.Logger
}

// NewProjector creates a new projector
func NewProjector(runner StatementRunner, logger ectologger.Logger) *Projector {
	return &Projector{
		runner: runner,
		logger: logger,
	}
}

// Enabled reports whether projections are written anywhere
func (p *Projector) Enabled() bool {
	return p != nil && p.runner != nil
}

// ProjectAgent upserts the agent node and re-points its department and position edges
func (p *Projector) ProjectAgent(ctx context.Context, agent *models.Agent) error {
	if !p.Enabled() {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectAgent")
	defer span.End()

	if err := p.runner.RunStatements(ctx, AgentStatements(agent)); err != nil {
		metrics.GraphProjectionsTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).WithField("agent_id", agent.ID).Error("Failed to project agent")
		return err
	}

	metrics.GraphProjectionsTotal.WithLabelValues("ok").Inc()
	return nil
}

// RemoveAgent deletes the agent node and its edges. Department and position nodes stay.
func (p *Projector) RemoveAgent(ctx context.Context, agentID string) error {
	if !p.Enabled() {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RemoveAgent")
	defer span.End()

	err := p.runner.RunStatements(ctx, []Statement{{
		Cypher: `MATCH (a:Agent {id: $id}) DETACH DELETE a`,
		Params: map[string]any{"id": agentID},
	}})
	if err != nil {
		metrics.GraphProjectionsTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).WithField("agent_id", agentID).Error("Failed to remove agent from graph")
		return err
	}

	metrics.GraphProjectionsTotal.WithLabelValues("ok").Inc()
	return nil
}

// AgentStatements builds the statements projecting one agent. Department and
// position nodes are keyed by their normalized name so spelling variants share a node.
func AgentStatements(agent *models.Agent) []Statement {
	statements := []Statement{
		{
			Cypher: `
				MERGE (a:Agent {id: $id})
				SET a.full_name = $full_name,
					a.last_name = $last_name,
					a.first_name = $first_name,
					a.external_id = $external_id,
					a.updated_at = $updated_at`,
			Params: map[string]any{
				"id":          agent.ID,
				"full_name":   agent.FullName(),
				"last_name":   agent.LastName,
				"first_name":  agent.FirstName,
				"external_id": agent.ExternalID,
				"updated_at":  agent.UpdatedAt.UTC().Format(time.RFC3339),
			},
		},
		{
			Cypher: `MATCH (a:Agent {id: $id})-[r:WORKS_IN|HOLDS]->() DELETE r`,
			Params: map[string]any{"id": agent.ID},
		},
	}

	if key := normalizers.Normalize(agent.DepartmentName); key != "" {
		statements = append(statements, Statement{
			Cypher: `
				MATCH (a:Agent {id: $id})
				MERGE (d:Department {key: $key})
				ON CREATE SET d.name = $name
				MERGE (a)-[:WORKS_IN]->(d)`,
			Params: map[string]any{"id": agent.ID, "key": key, "name": agent.DepartmentName},
		})
	}

	if key := normalizers.Normalize(agent.PositionName); key != "" {
		statements = append(statements, Statement{
			Cypher: `
				MATCH (a:Agent {id: $id})
				MERGE (p:Position {key: $key})
				ON CREATE SET p.name = $name
				MERGE (a)-[:HOLDS]->(p)`,
			Params: map[string]any{"id": agent.ID, "key": key, "name": agent.PositionName},
		})
	}

	return statements
}
