package imports

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const formFile = "file"

// Handler serves spreadsheet review and commit
type Handler struct {
	service *reconcile.Service
}

func NewHandler(service *reconcile.Service) *Handler {
	return &Handler{service: service}
}

// Register registers import routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Upload)
	g.POST("/commit", h.Commit)
}

// Upload parses the multipart "file" and returns its agents annotated for review
func (h *Handler) Upload(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.Upload")
	defer span.End()

	header, err := c.FormFile(formFile)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "multipart field %q is required", formFile)
	}

	file, err := header.Open()
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to open upload: %v", err)
	}
	defer func() { _ = file.Close() }()

	resp, err := h.service.Import(ctx, header.Filename, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Commit applies the operator's reviewed decisions
func (h *Handler) Commit(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.Commit")
	defer span.End()

	var req models.CommitRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	summary, err := h.service.Commit(ctx, req.Decisions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
