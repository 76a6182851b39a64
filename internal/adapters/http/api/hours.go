package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/internal/domain/workhours"
)

// HoursController reads and replaces the working window.
type HoursController interface {
	Hours() model.Window
	SetHours(ctx context.Context, startHour, startMinute, endHour, endMinute int) error
}

// hoursBody is both the PUT request and the response of /hours.
type hoursBody struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HoursHandler handles working-hours requests.
type HoursHandler struct {
	deps HoursController
}

// NewHoursHandler creates a new hours handler.
func NewHoursHandler(deps HoursController) *HoursHandler {
	return &HoursHandler{deps: deps}
}

// HandleHours handles GET and PUT /hours.
func (h *HoursHandler) HandleHours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, windowBody(h.deps.Hours()))
	case http.MethodPut:
		h.put(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	}
}

func (h *HoursHandler) put(w http.ResponseWriter, r *http.Request) {
	var req hoursBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	sh, sm, err := workhours.ParseClock(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	eh, em, err := workhours.ParseClock(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.SetHours(r.Context(), sh, sm, eh, em); err != nil {
		if errors.Is(err, model.ErrValidation) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, windowBody(h.deps.Hours()))
}

func windowBody(win model.Window) hoursBody {
	return hoursBody{
		Start: fmt.Sprintf("%02d:00", win.StartHour),
		End:   fmt.Sprintf("%02d:00", win.EndHour),
	}
}
