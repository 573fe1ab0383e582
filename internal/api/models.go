package api

import (
	"fmt"
	"time"

	"github.com/arxiv/zero/internal/domain"
)

// BasePath prefixes every API route.
const BasePath = "/zero/api"

// CreateThingRequest defines the payload for creating a thing.
type CreateThingRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ThingResponse is the JSON representation of a thing.
type ThingResponse struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	URL     string    `json:"url"`
}

// MutationAcceptedResponse is returned when a mutation is queued.
type MutationAcceptedResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

// MutationStatusResponse reports the progress of a mutation. Reason is set,
// possibly to "", exactly when the mutation failed.
type MutationStatusResponse struct {
	Status string                  `json:"status"`
	Reason *string                 `json:"reason,omitempty"`
	Result *MutationResultResponse `json:"result,omitempty"`
}

// MutationResultResponse carries the outcome of a completed mutation.
type MutationResultResponse struct {
	ThingID int64 `json:"thing_id"`
	Result  int   `json:"result"`
}

// BazResponse is the JSON representation of a baz.
type BazResponse struct {
	Foo    string `json:"foo"`
	Mukluk int    `json:"mukluk"`
}

// StatusResponse is returned by the health check.
type StatusResponse struct {
	Status string `json:"status"`
}

func thingURL(id int64) string {
	return fmt.Sprintf("%s/thing/%d", BasePath, id)
}

func mutationURL(taskID string) string {
	return fmt.Sprintf("%s/mutation/%s", BasePath, taskID)
}

func thingToResponse(thing domain.Thing) ThingResponse {
	return ThingResponse{
		ID:      thing.ID,
		Name:    thing.Name,
		Created: thing.Created,
		URL:     thingURL(thing.ID),
	}
}
