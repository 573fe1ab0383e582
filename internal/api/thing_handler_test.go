package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/mocks"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/service"
	"github.com/arxiv/zero/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThingHandler_CreateThing(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		createFn       func(ctx context.Context, name string) (domain.Thing, error)
		expectedStatus int
		expectedReason string
	}{
		{
			name: "created",
			body: `{"name":"The Thing"}`,
			createFn: func(_ context.Context, name string) (domain.Thing, error) {
				return domain.Thing{ID: 12, Name: name, Created: created}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed body",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedReason: "Invalid request format",
		},
		{
			name:           "missing name",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedReason: "Invalid name: required field",
		},
		{
			name:           "name too long",
			body:           `{"name":"` + strings.Repeat("x", 256) + `"}`,
			expectedStatus: http.StatusBadRequest,
			expectedReason: "Invalid name: too long",
		},
		{
			name: "storage unavailable",
			body: `{"name":"The Thing"}`,
			createFn: func(context.Context, string) (domain.Thing, error) {
				return domain.Thing{}, &service.ServiceError{Service: "thing", Operation: "create_thing", Err: store.ErrStorageUnavailable}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedReason: "could not create the thing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			things := &mocks.MockThingService{CreateThingFn: tt.createFn}
			h := NewThingHandler(things, logger.Discard())

			rr := serve(http.MethodPost, "/zero/api/thing", h.CreateThing,
				newRequest(http.MethodPost, "/zero/api/thing", tt.body))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusCreated {
				assert.Equal(t, tt.expectedReason, decodeError(t, rr).Reason)
				return
			}

			assert.Equal(t, "/zero/api/thing/12", rr.Header().Get("Location"))
			var resp ThingResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, ThingResponse{ID: 12, Name: "The Thing", Created: created, URL: "/zero/api/thing/12"}, resp)
		})
	}
}

func TestThingHandler_GetThing(t *testing.T) {
	t.Parallel()

	getFn := func(_ context.Context, id int64) (domain.Thing, error) {
		switch id {
		case 1:
			return domain.Thing{ID: 1, Name: "The Thing", Created: time.Now().UTC()}, nil
		case 2:
			return domain.Thing{}, service.ErrThingNotFound
		default:
			return domain.Thing{}, &service.ServiceError{Service: "thing", Operation: "get_thing", Err: store.ErrStorageUnavailable}
		}
	}
	h := NewThingHandler(&mocks.MockThingService{GetThingFn: getFn}, logger.Discard())

	t.Run("plain text by default", func(t *testing.T) {
		t.Parallel()
		rr := serve(http.MethodGet, "/thing/{id}", h.GetThing, newRequest(http.MethodGet, "/thing/1", ""))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "The Thing", rr.Body.String())
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("json when accepted", func(t *testing.T) {
		t.Parallel()
		req := newRequest(http.MethodGet, "/thing/1", "")
		req.Header.Set("Accept", "text/html, application/json;q=0.9")
		rr := serve(http.MethodGet, "/thing/{id}", h.GetThing, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp ThingResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.ID)
		assert.Equal(t, "The Thing", resp.Name)
		assert.Equal(t, "/zero/api/thing/1", resp.URL)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		rr := serve(http.MethodGet, "/thing/{id}", h.GetThing, newRequest(http.MethodGet, "/thing/2", ""))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "No such thing", decodeError(t, rr).Reason)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		t.Parallel()
		rr := serve(http.MethodGet, "/thing/{id}", h.GetThing, newRequest(http.MethodGet, "/thing/3", ""))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, "could not get the thing", resp.Reason)
		assert.NotEmpty(t, resp.TraceID)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		for _, id := range []string{"abc", "0", "-4"} {
			rr := serve(http.MethodGet, "/thing/{id}", h.GetThing, newRequest(http.MethodGet, "/thing/"+id, ""))
			assert.Equal(t, http.StatusBadRequest, rr.Code, "id %q", id)
		}
	})
}
