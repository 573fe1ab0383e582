package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/arxiv/zero/internal/mocks"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/service"
	"github.com/arxiv/zero/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationHandler_RequestMutation(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()
		var gotID int64
		mutations := &mocks.MockMutationService{
			RequestMutationFn: func(_ context.Context, thingID int64) (string, error) {
				gotID = thingID
				return "task-abc", nil
			},
		}
		h := NewMutationHandler(mutations, logger.Discard())

		rr := serve(http.MethodPost, "/thing/{id}", h.RequestMutation, newRequest(http.MethodPost, "/thing/42", ""))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, int64(42), gotID)
		assert.Equal(t, "/zero/api/mutation/task-abc", rr.Header().Get("Location"))
		var resp MutationAcceptedResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, MutationAcceptedResponse{TaskID: "task-abc", StatusURL: "/zero/api/mutation/task-abc"}, resp)
	})

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()
		mutations := &mocks.MockMutationService{
			RequestMutationFn: func(context.Context, int64) (string, error) {
				return "", &service.ServiceError{Service: "mutation", Operation: "request_mutation", Err: task.ErrQueueFull}
			},
		}
		h := NewMutationHandler(mutations, logger.Discard())

		rr := serve(http.MethodPost, "/thing/{id}", h.RequestMutation, newRequest(http.MethodPost, "/thing/42", ""))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		h := NewMutationHandler(&mocks.MockMutationService{}, logger.Discard())

		rr := serve(http.MethodPost, "/thing/{id}", h.RequestMutation, newRequest(http.MethodPost, "/thing/nope", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMutationHandler_MutationStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		status           service.MutationStatus
		err              error
		expectedStatus   int
		expectedBody     string
		expectedLocation string
	}{
		{
			name:           "invalid task id",
			err:            service.ErrInvalidTaskID,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown task",
			err:            service.ErrTaskNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "in progress",
			status:         service.MutationStatus{State: service.MutationInProgress},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"in progress"}`,
		},
		{
			name:           "failed",
			status:         service.MutationStatus{State: service.MutationFailed, Reason: "no such thing: 42"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"failed","reason":"no such thing: 42"}`,
		},
		{
			name:           "failed without a reason",
			status:         service.MutationStatus{State: service.MutationFailed},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"failed","reason":""}`,
		},
		{
			name: "complete",
			status: service.MutationStatus{
				State:  service.MutationComplete,
				Result: &task.MutationResult{ThingID: 42, Result: 14},
			},
			expectedStatus:   http.StatusSeeOther,
			expectedBody:     `{"status":"complete","result":{"thing_id":42,"result":14}}`,
			expectedLocation: "/zero/api/thing/42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var gotID string
			mutations := &mocks.MockMutationService{
				MutationStatusFn: func(_ context.Context, taskID string) (service.MutationStatus, error) {
					gotID = taskID
					return tt.status, tt.err
				},
			}
			h := NewMutationHandler(mutations, logger.Discard())

			rr := serve(http.MethodGet, "/mutation/{task_id}", h.MutationStatus,
				newRequest(http.MethodGet, "/mutation/task-abc", ""))

			assert.Equal(t, "task-abc", gotID)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			assert.Equal(t, tt.expectedLocation, rr.Header().Get("Location"))
		})
	}
}
