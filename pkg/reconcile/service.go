// Package reconcile reviews incoming agents against the stored pool and
// commits the operator's decisions.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/validation"
)

// AgentStore is the agent persistence the service needs. The agent repository implements it.
type AgentStore interface {
	ListAll(ctx context.Context) ([]models.Agent, error)
	Get(ctx context.Context, id string) (*models.Agent, error)
	Create(ctx context.Context, agent *models.Agent) error
	Update(ctx context.Context, agent *models.Agent) error
}

// Projector mirrors committed agents elsewhere. *graph.Projector implements it.
type Projector interface {
	ProjectAgent(ctx context.Context, agent *models.Agent) error
}

// Service checks, imports and commits agents
type Service struct {
	db        database.DB
	agents    AgentStore
	detector  *matching.Detector
	parser    *importer.Parser
	emitter   *events.Emitter
	projector Projector
	logger    ectologger.Logger
}

// NewService creates a new reconcile service. A nil projector disables projection;
// a disabled emitter drops events.
func NewService(
	db database.DB,
	agents AgentStore,
	detector *matching.Detector,
	parser *importer.Parser,
	emitter *events.Emitter,
	projector Projector,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:        db,
		agents:    agents,
		detector:  detector,
		parser:    parser,
		emitter:   emitter,
		projector: projector,
		logger:    logger,
	}
}

// Check classifies agents against a snapshot of every stored agent
func (s *Service) Check(ctx context.Context, agents []models.Agent) (*models.CheckDuplicatesResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Check", tracing.AgentCount(len(agents)))
	defer span.End()

	if err := validation.Struct(models.CheckDuplicatesRequest{Agents: agents}); err != nil {
		return nil, err
	}

	annotated, poolSize, err := s.detect(ctx, agents)
	if err != nil {
		return nil, err
	}

	duplicates := countDuplicates(annotated)
	s.emitChecked(ctx, events.ImportCheckedData{
		Agents:     len(annotated),
		Duplicates: duplicates,
		PoolSize:   poolSize,
	})

	return &models.CheckDuplicatesResponse{
		Agents:     annotated,
		Duplicates: duplicates,
		PoolSize:   poolSize,
	}, nil
}

// Import parses a spreadsheet and classifies its agents. Rows the parser
// rejected come back as warnings; nothing is stored.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*models.ImportResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Import")
	defer span.End()

	parsed, err := s.parser.ParseFile(ctx, fileName, r)
	if err != nil {
		return nil, err
	}

	annotated, poolSize, err := s.detect(ctx, parsed.Agents)
	if err != nil {
		return nil, err
	}

	duplicates := countDuplicates(annotated)
	s.emitChecked(ctx, events.ImportCheckedData{
		FileName:   fileName,
		Agents:     len(annotated),
		Duplicates: duplicates,
		Warnings:   len(parsed.Warnings),
		PoolSize:   poolSize,
	})

	return &models.ImportResponse{
		FileName:   fileName,
		Agents:     annotated,
		Warnings:   parsed.Warnings,
		Duplicates: duplicates,
		PoolSize:   poolSize,
	}, nil
}

func (s *Service) detect(ctx context.Context, agents []models.Agent) ([]models.AnnotatedAgent, int, error) {
	pool, err := s.agents.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	annotated, err := s.detector.Detect(ctx, agents, pool)
	if err != nil {
		return nil, 0, httperror.NewHTTPErrorf(http.StatusServiceUnavailable, "duplicate detection interrupted: %v", err)
	}
	return annotated, len(pool), nil
}

func (s *Service) emitChecked(ctx context.Context, data events.ImportCheckedData) {
	data.CheckedAt = time.Now().UTC()
	if err := s.emitter.EmitImportChecked(ctx, data); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit import.checked event")
	}
}

func countDuplicates(annotated []models.AnnotatedAgent) int {
	return len(ectolinq.Filter(annotated, func(a models.AnnotatedAgent) bool {
		return a.IsDuplicate
	}))
}

type committed struct {
	agent   *models.Agent
	created bool
	changed []string
}

// Commit applies reviewed decisions in one transaction: create inserts the
// agent, update merges its non-empty fields into the matched record, skip
// drops it. Events and graph projections follow a successful commit.
func (s *Service) Commit(ctx context.Context, decisions []models.CommitDecision) (*models.CommitSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Commit", tracing.AgentCount(len(decisions)))
	defer span.End()

	if err := validation.Struct(models.CommitRequest{Decisions: decisions}); err != nil {
		return nil, err
	}

	log := s.logger.WithContext(ctx).WithField("decisions", len(decisions))

	txCtx, tx, err := database.GetTx(ctx, s.logger, s.db, nil)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	var (
		applied []committed
		skipped int
	)
	for i, d := range decisions {
		switch d.Action {
		case models.CommitActionCreate:
			agent := d.Agent
			agent.ID = ""
			if err := s.agents.Create(txCtx, &agent); err != nil {
				return nil, tracing.Fail(span, decisionError(i, err))
			}
			applied = append(applied, committed{agent: &agent, created: true})

		case models.CommitActionUpdate:
			existing, err := s.agents.Get(txCtx, *d.MatchedRecordID)
			if err != nil {
				return nil, tracing.Fail(span, decisionError(i, err))
			}
			before := *existing
			before.Documents = slices.Clone(existing.Documents)

			existing.MergeFrom(&d.Agent)
			if err := s.agents.Update(txCtx, existing); err != nil {
				return nil, tracing.Fail(span, decisionError(i, err))
			}
			applied = append(applied, committed{agent: existing, changed: events.ChangedFields(&before, existing)})

		case models.CommitActionSkip:
			skipped++
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to commit decisions: %v", err)
	}

	summary := &models.CommitSummary{
		Created: ectolinq.Map(ectolinq.Filter(applied, func(c committed) bool { return c.created }), committedID),
		Updated: ectolinq.Map(ectolinq.Filter(applied, func(c committed) bool { return !c.created }), committedID),
		Skipped: skipped,
	}
	if summary.Created == nil {
		summary.Created = []string{}
	}
	if summary.Updated == nil {
		summary.Updated = []string{}
	}

	metrics.CommittedAgentsTotal.WithLabelValues(string(models.CommitActionCreate)).Add(float64(len(summary.Created)))
	metrics.CommittedAgentsTotal.WithLabelValues(string(models.CommitActionUpdate)).Add(float64(len(summary.Updated)))
	metrics.CommittedAgentsTotal.WithLabelValues(string(models.CommitActionSkip)).Add(float64(skipped))

	s.publish(ctx, applied)

	log.WithFields(map[string]any{
		"created": len(summary.Created),
		"updated": len(summary.Updated),
		"skipped": skipped,
	}).Info("Committed reviewed agents")

	return summary, nil
}

func committedID(c committed) string {
	return c.agent.ID
}

// publish emits events and graph projections for committed agents. The agents
// are already stored, so failures are logged and not returned.
func (s *Service) publish(ctx context.Context, applied []committed) {
	for _, c := range applied {
		var err error
		if c.created {
			err = s.emitter.EmitAgentCreated(ctx, c.agent)
		} else {
			err = s.emitter.EmitAgentUpdated(ctx, c.agent, c.changed)
		}
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("agent_id", c.agent.ID).Warn("Failed to emit agent event")
		}

		if s.projector == nil {
			continue
		}
		if err := s.projector.ProjectAgent(ctx, c.agent); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("agent_id", c.agent.ID).Warn("Failed to project agent")
		}
	}
}

func decisionError(index int, err error) error {
	if httperror.IsHTTPError(err) {
		return httperror.NewHTTPErrorf(httperror.GetStatusCode(err), "decision %d: %v", index, err)
	}
	return fmt.Errorf("decision %d: %w", index, err)
}
