package agents

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/validation"
)

// Repository is the agent persistence the handlers need
type Repository interface {
	List(ctx context.Context, page, pageSize int) (*models.AgentListResponse, error)
	Get(ctx context.Context, id string) (*models.Agent, error)
	Create(ctx context.Context, agent *models.Agent) error
	Update(ctx context.Context, agent *models.Agent) error
	Delete(ctx context.Context, id string) error
}

// Handler serves agent CRUD
type Handler struct {
	repo      Repository
	emitter   *events.Emitter
	projector *graph.Projector
	logger    ectologger.Logger
}

// NewHandler creates agent handlers. emitter and projector may be disabled.
func NewHandler(repo Repository, emitter *events.Emitter, projector *graph.Projector, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:      repo,
		emitter:   emitter,
		projector: projector,
		logger:    logger,
	}
}

// Register registers agent routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List returns one page of agents
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "agents_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.repo.List(ctx, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns a single agent by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "agents_handler.Get")
	defer span.End()

	agent, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// Create stores a new agent. Duplicate checking is a separate step.
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "agents_handler.Create")
	defer span.End()

	var agent models.Agent
	if err := c.Bind(&agent); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(agent); err != nil {
		return err
	}

	agent.ID = ""
	if err := h.repo.Create(ctx, &agent); err != nil {
		return err
	}

	if err := h.emitter.EmitAgentCreated(ctx, &agent); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit agent event")
	}
	if err := h.projector.ProjectAgent(ctx, &agent); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to project agent")
	}

	return c.JSON(http.StatusCreated, agent)
}

// Update replaces an agent's fields and documents
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "agents_handler.Update")
	defer span.End()

	id := c.Param("id")
	existing, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	var agent models.Agent
	if err := c.Bind(&agent); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(agent); err != nil {
		return err
	}

	agent.ID = id
	agent.CreatedAt = existing.CreatedAt
	if err := h.repo.Update(ctx, &agent); err != nil {
		return err
	}

	if err := h.emitter.EmitAgentUpdated(ctx, &agent, events.ChangedFields(existing, &agent)); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to emit agent event")
	}
	if err := h.projector.ProjectAgent(ctx, &agent); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to project agent")
	}

	return c.JSON(http.StatusOK, agent)
}

// Delete removes an agent
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "agents_handler.Delete")
	defer span.End()

	id := c.Param("id")
	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := h.projector.RemoveAgent(ctx, id); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to remove agent from graph")
	}

	return c.NoContent(http.StatusNoContent)
}
