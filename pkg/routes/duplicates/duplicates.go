package duplicates

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Handler serves duplicate checks against the stored pool
type Handler struct {
	service *reconcile.Service
}

func NewHandler(service *reconcile.Service) *Handler {
	return &Handler{service: service}
}

// Register registers duplicate routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/check", h.Check)
}

// Check annotates every agent in the body with its best stored match
func (h *Handler) Check(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicates_handler.Check")
	defer span.End()

	var req models.CheckDuplicatesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Check(ctx, req.Agents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
