package agent

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	maxInListSize = 500

	agentsTable    = "agents"
	documentsTable = "agent_documents"
)

var agentColumns = []string{
	"id", "last_name", "middle_name", "first_name",
	"email", "phone",
	"external_id", "position_name", "department_name",
	"created_at", "updated_at",
}

// documentRow is one agent_documents row
type documentRow struct {
	AgentID  string `db:"agent_id"`
	Position int    `db:"position"`
	models.Document
}

// Repository handles agent persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new agent repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListAll returns every agent with its documents, oldest first. Agents created
// in the same instant are ordered by id, so the order is stable between calls.
func (r *Repository) ListAll(ctx context.Context) ([]models.Agent, error) {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.ListAll")
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(agentColumns...)
	sb.From(agentsTable)
	sb.OrderBy("created_at", "id")

	query, args := sb.Build()
	agents := []models.Agent{}
	if err := database.QueryerFrom(ctx, r.db).SelectContext(ctx, &agents, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list agents")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to list agents: %v", err)
	}

	if err := r.attachDocuments(ctx, agents); err != nil {
		return nil, err
	}

	return agents, nil
}

// List returns one page of agents, oldest first
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.AgentListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	q := database.QueryerFrom(ctx, r.db)

	cb := r.db.Flavor().NewSelectBuilder()
	cb.Select("COUNT(*)")
	cb.From(agentsTable)
	countQuery, countArgs := cb.Build()

	var total int
	if err := q.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count agents")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to count agents: %v", err)
	}

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(agentColumns...)
	sb.From(agentsTable)
	sb.OrderBy("created_at", "id")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	agents := []models.Agent{}
	if err := q.SelectContext(ctx, &agents, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"page": page, "page_size": pageSize}).Error("Failed to list agents")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to list agents: %v", err)
	}

	if err := r.attachDocuments(ctx, agents); err != nil {
		return nil, err
	}

	return &models.AgentListResponse{
		Items:      agents,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Get returns one agent with its documents
func (r *Repository) Get(ctx context.Context, id string) (*models.Agent, error) {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.Get", tracing.AgentID(id))
	defer span.End()

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select(agentColumns...)
	sb.From(agentsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var agent models.Agent
	if err := database.QueryerFrom(ctx, r.db).GetContext(ctx, &agent, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "agent %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", id).Error("Failed to get agent")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to get agent: %v", err)
	}

	agents := []models.Agent{agent}
	if err := r.attachDocuments(ctx, agents); err != nil {
		return nil, err
	}

	return &agents[0], nil
}

// Create inserts an agent and its documents. A missing id is generated.
func (r *Repository) Create(ctx context.Context, agent *models.Agent) error {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.Create")
	defer span.End()

	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	agent.CreatedAt = now
	agent.UpdatedAt = now

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto(agentsTable)
	ib.Cols(agentColumns...)
	ib.Values(
		agent.ID, agent.LastName, agent.MiddleName, agent.FirstName,
		agent.Email, agent.Phone,
		agent.ExternalID, agent.PositionName, agent.DepartmentName,
		agent.CreatedAt, agent.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", agent.ID).Error("Failed to create agent")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to create agent: %v", err)
	}

	if err := r.insertDocuments(ctx, tx, agent); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to create agent: %v", err)
	}

	r.logger.WithContext(ctx).WithField("agent_id", agent.ID).Debug("Created agent")
	return nil
}

// Update overwrites an agent's fields and replaces its documents
func (r *Repository) Update(ctx context.Context, agent *models.Agent) error {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.Update", tracing.AgentID(agent.ID))
	defer span.End()

	agent.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ub := r.db.Flavor().NewUpdateBuilder()
	ub.Update(agentsTable)
	ub.Set(
		ub.Assign("last_name", agent.LastName),
		ub.Assign("middle_name", agent.MiddleName),
		ub.Assign("first_name", agent.FirstName),
		ub.Assign("email", agent.Email),
		ub.Assign("phone", agent.Phone),
		ub.Assign("external_id", agent.ExternalID),
		ub.Assign("position_name", agent.PositionName),
		ub.Assign("department_name", agent.DepartmentName),
		ub.Assign("updated_at", agent.UpdatedAt),
	)
	ub.Where(ub.Equal("id", agent.ID))

	query, args := ub.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", agent.ID).Error("Failed to update agent")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to update agent: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "agent %s not found", agent.ID)
	}

	if err := r.deleteDocuments(ctx, tx, agent.ID); err != nil {
		return err
	}
	if err := r.insertDocuments(ctx, tx, agent); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to update agent: %v", err)
	}

	r.logger.WithContext(ctx).WithField("agent_id", agent.ID).Debug("Updated agent")
	return nil
}

// Delete removes an agent and its documents
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "agent.Repository.Delete", tracing.AgentID(id))
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.deleteDocuments(ctx, tx, id); err != nil {
		return err
	}

	dlb := r.db.Flavor().NewDeleteBuilder()
	dlb.DeleteFrom(agentsTable)
	dlb.Where(dlb.Equal("id", id))

	query, args := dlb.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", id).Error("Failed to delete agent")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to delete agent: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "agent %s not found", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to delete agent: %v", err)
	}
	return nil
}

func (r *Repository) insertDocuments(ctx context.Context, tx database.Tx, agent *models.Agent) error {
	if len(agent.Documents) == 0 {
		return nil
	}

	ib := r.db.Flavor().NewInsertBuilder()
	ib.InsertInto(documentsTable)
	ib.Cols("agent_id", "position", "document_type", "document_number")
	for i, doc := range agent.Documents {
		ib.Values(agent.ID, i, doc.DocumentType, doc.DocumentNumber)
	}

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", agent.ID).Error("Failed to insert agent documents")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to insert agent documents: %v", err)
	}
	return nil
}

func (r *Repository) deleteDocuments(ctx context.Context, tx database.Tx, agentID string) error {
	dlb := r.db.Flavor().NewDeleteBuilder()
	dlb.DeleteFrom(documentsTable)
	dlb.Where(dlb.Equal("agent_id", agentID))

	query, args := dlb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("agent_id", agentID).Error("Failed to delete agent documents")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to delete agent documents: %v", err)
	}
	return nil
}

// attachDocuments loads the documents of the given agents in place
func (r *Repository) attachDocuments(ctx context.Context, agents []models.Agent) error {
	if len(agents) == 0 {
		return nil
	}

	ids := make([]any, len(agents))
	for i, agent := range agents {
		ids[i] = agent.ID
	}

	sb := r.db.Flavor().NewSelectBuilder()
	sb.Select("agent_id", "position", "document_type", "document_number")
	sb.From(documentsTable)
	// larger batches load the whole table rather than binding an IN list
	if len(agents) <= maxInListSize {
		sb.Where(sb.In("agent_id", ids...))
	}
	sb.OrderBy("agent_id", "position")

	query, args := sb.Build()
	var rows []documentRow
	if err := database.QueryerFrom(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load agent documents")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to load agent documents: %v", err)
	}

	byAgent := make(map[string][]models.Document, len(agents))
	for _, row := range rows {
		byAgent[row.AgentID] = append(byAgent[row.AgentID], row.Document)
	}
	for i := range agents {
		agents[i].Documents = byAgent[agents[i].ID]
	}

	return nil
}
