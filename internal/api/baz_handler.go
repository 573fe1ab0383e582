package api

import (
	"context"
	"net/http"

	"github.com/arxiv/zero/internal/api/shared"
	"github.com/arxiv/zero/internal/domain"
)

// BazRetriever fetches bazs from the remote baz service.
type BazRetriever interface {
	RetrieveBaz(ctx context.Context, id int64) (domain.Baz, error)
}

// BazHandler serves bazs.
type BazHandler struct {
	bazs BazRetriever
}

// NewBazHandler creates a new BazHandler
func NewBazHandler(bazs BazRetriever) *BazHandler {
	return &BazHandler{bazs: bazs}
}

// GetBaz handles GET /baz/{id}.
func (h *BazHandler) GetBaz(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	b, err := h.bazs.RetrieveBaz(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "could not get the baz")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BazResponse{Foo: b.Foo, Mukluk: b.Mukluk})
}
