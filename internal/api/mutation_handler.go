package api

import (
	"log/slog"
	"net/http"

	"github.com/arxiv/zero/internal/api/shared"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/service"
	"github.com/go-chi/chi/v5"
)

// MutationHandler starts thing mutations and reports their progress.
type MutationHandler struct {
	mutations service.MutationService
	logger    *slog.Logger
}

// NewMutationHandler creates a new MutationHandler
func NewMutationHandler(mutations service.MutationService, logger *slog.Logger) *MutationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationHandler{
		mutations: mutations,
		logger:    logger.With("component", "mutation_handler"),
	}
}

// RequestMutation handles POST /thing/{id}. It answers 202 as soon as the
// mutation is queued; the thing's existence is checked by the task.
func (h *MutationHandler) RequestMutation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	thingID, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	taskID, err := h.mutations.RequestMutation(r.Context(), thingID)
	if err != nil {
		HandleAPIError(w, r, err, "could not start the mutation")
		return
	}

	log.Info("mutation accepted", "thing_id", thingID, "task_id", taskID)
	statusURL := mutationURL(taskID)
	w.Header().Set("Location", statusURL)
	shared.RespondWithJSON(w, r, http.StatusAccepted, MutationAcceptedResponse{
		TaskID:    taskID,
		StatusURL: statusURL,
	})
}

// MutationStatus handles GET /mutation/{task_id}. A completed mutation
// redirects to the mutated thing with 303 See Other.
func (h *MutationHandler) MutationStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	status, err := h.mutations.MutationStatus(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "could not get the mutation status")
		return
	}

	switch status.State {
	case service.MutationComplete:
		w.Header().Set("Location", thingURL(status.Result.ThingID))
		shared.RespondWithJSON(w, r, http.StatusSeeOther, MutationStatusResponse{
			Status: string(status.State),
			Result: &MutationResultResponse{
				ThingID: status.Result.ThingID,
				Result:  status.Result.Result,
			},
		})
	case service.MutationFailed:
		reason := status.Reason
		shared.RespondWithJSON(w, r, http.StatusOK, MutationStatusResponse{
			Status: string(status.State),
			Reason: &reason,
		})
	default:
		shared.RespondWithJSON(w, r, http.StatusOK, MutationStatusResponse{
			Status: string(status.State),
		})
	}
}
