package api

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/arxiv/zero/internal/api/shared"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/service"
)

// ThingHandler handles thing-related HTTP requests
type ThingHandler struct {
	things service.ThingService
	logger *slog.Logger
}

// NewThingHandler creates a new ThingHandler
func NewThingHandler(things service.ThingService, logger *slog.Logger) *ThingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThingHandler{
		things: things,
		logger: logger.With("component", "thing_handler"),
	}
}

// CreateThing handles POST /thing. The body is read as JSON whatever the
// Content-Type says.
func (h *ThingHandler) CreateThing(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateThingRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	thing, err := h.things.CreateThing(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "could not create the thing")
		return
	}

	log.Info("thing created", "thing_id", thing.ID)
	w.Header().Set("Location", thingURL(thing.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, thingToResponse(thing))
}

// GetThing handles GET /thing/{id}. The name is returned as plain text
// unless the client accepts JSON.
func (h *ThingHandler) GetThing(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	thing, err := h.things.GetThing(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "could not get the thing")
		return
	}

	if acceptsJSON(r) {
		shared.RespondWithJSON(w, r, http.StatusOK, thingToResponse(thing))
		return
	}
	shared.RespondWithText(w, r, http.StatusOK, thing.Name)
}

func acceptsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}
