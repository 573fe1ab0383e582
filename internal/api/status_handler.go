package api

import (
	"net/http"

	"github.com/arxiv/zero/internal/api/shared"
)

// HealthyStatus is the body of a successful health check.
const HealthyStatus = "nobody but us hamsters"

// Status handles GET /status.
func Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Status: HealthyStatus})
}
