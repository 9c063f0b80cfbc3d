package restserver

import (
	"context"
	"net/http"
	"time"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/log"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
	"github.com/chrissnell/lunarmansion/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Calculate resolves the date in the query string.
// Validation and conversion errors are 400; conversion errors include the partial result.
func (h *Handlers) Calculate(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	raw := engine.RawRequest{
		RawDate: calendar.RawDate{
			Year:   q.Get("year"),
			Month:  q.Get("month"),
			Day:    q.Get("day"),
			Hour:   q.Get("hour"),
			Minute: q.Get("minute"),
		},
		Timezone: q.Get("timezone"),
	}

	res, err := h.controller.resolver.Resolve(req.Context(), raw)
	if err != nil {
		h.writeError(w, req, res, err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, res, nil); err != nil {
		h.controller.logger.Errorf("error writing /calculate response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, partial *engine.Result, err error) {
	kind := engine.KindOf(err)
	status := http.StatusBadRequest
	if kind == engine.KindInternal {
		status = http.StatusInternalServerError
		h.controller.logger.Errorw("/calculate failed", "request_id", log.RequestID(req.Context()), "error", err)
	}

	body := map[string]any{
		"error":      err.Error(),
		"error_kind": kind,
	}
	if partial != nil {
		body["solar_date"] = partial.SolarDate
		body["lunar_date"] = partial.LunarDate
		body["bazi"] = partial.BaZi
		body["lunar_mansion"] = partial.LunarMansion
		body["lunar_mansion_description"] = partial.LunarMansionDescription
		body["angle"] = partial.Angle
		if len(partial.Warnings) > 0 {
			body["warnings"] = partial.Warnings
		}
	}

	if werr := h.formatter.WriteStatus(w, req, status, body, nil); werr != nil {
		h.controller.logger.Errorf("error writing error response: %v", werr)
	}
}

// Health reports liveness, and the result cache's health when it has a remote backend
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.controller.logger.Debug("Health check accessed")

	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if err := h.controller.resolver.CheckHealth(ctx); err != nil {
		h.formatter.WriteStatus(w, req, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		}, nil)
		return
	}
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, nil)
}

// Mansions lists the 28 mansions in cyclic order
func (h *Handlers) Mansions(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, mansion.Cycle(), nil)
}

// Stats returns the result cache counters
func (h *Handlers) Stats(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, h.controller.resolver.Stats(), nil)
}

func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteStatus(w, req, http.StatusNotFound, map[string]string{"error": "not found"}, nil)
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteStatus(w, req, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"}, nil)
}
