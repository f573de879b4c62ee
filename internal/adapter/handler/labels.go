package handler

import (
	"net/http"

	"session-hub/internal/domain"
	"session-hub/internal/labels"
	"session-hub/internal/session"

	"github.com/labstack/echo/v4"
)

// LabelsHandler resolves role-aware status labels for the viewer.
type LabelsHandler struct {
	catalog  labels.Catalog
	registry *session.Registry
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler(catalog labels.Catalog, registry *session.Registry) *LabelsHandler {
	return &LabelsHandler{catalog: catalog, registry: registry}
}

// LabelResponse is one resolved status label.
type LabelResponse struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

// Handle processes GET /v1/labels/:domain/:status. Unmapped statuses
// resolve through the fallback chain; only an unknown domain is a 404.
func (h *LabelsHandler) Handle(c echo.Context) error {
	table, found := h.catalog.Domain(c.Param("domain"))
	if !found {
		return mapDomainError(domain.ErrUnknownStatusDomain)
	}

	scope, cookie := viewerScope(c)
	store := h.registry.Acquire(scope, cookie)
	state := waitResolved(store, resolveWait)

	status := c.Param("status")
	resolved := labels.Resolve(table, status, state.Role())

	return c.JSON(http.StatusOK, LabelResponse{
		Status:  status,
		Label:   resolved.Label,
		Variant: resolved.Variant,
	})
}
