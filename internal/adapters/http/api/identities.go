package api

import (
	"context"
	"net/http"

	"github.com/okian/kiosk/internal/domain/model"
)

// IdentityLister lists enrolled people.
type IdentityLister interface {
	Identities(ctx context.Context) ([]model.Identity, error)
}

// identityResponse is the wire shape of an enrolled identity.
type identityResponse struct {
	ID   int               `json:"id"`
	Name string            `json:"name"`
	Age  string            `json:"age"`
	Box  model.BoundingBox `json:"bbox"`
}

// IdentitiesHandler handles identity listing.
type IdentitiesHandler struct {
	deps IdentityLister
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(deps IdentityLister) *IdentitiesHandler {
	return &IdentitiesHandler{deps: deps}
}

// HandleList handles GET /identities requests.
func (h *IdentitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	ids, err := h.deps.Identities(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	out := make([]identityResponse, len(ids))
	for i, id := range ids {
		out[i] = identityResponse{ID: id.ID, Name: id.Name, Age: id.Age, Box: id.Box}
	}
	writeJSON(w, http.StatusOK, out)
}
