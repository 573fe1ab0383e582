package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/store"
)

// TypeThingMutation is the task type of ThingMutationHandler.
const TypeThingMutation = "thing_mutation"

// DefaultMutationDelay is the artificial delay applied between mutating a
// thing and saving it, when neither the payload nor the handler sets one.
const DefaultMutationDelay = 5 * time.Second

// ErrNoSuchThing is the failure of a mutation whose thing does not exist.
var ErrNoSuchThing = errors.New("no such thing")

// MutationPayload is the payload of a thing mutation task.
type MutationPayload struct {
	ThingID int64 `json:"thing_id"`
	// Delay overrides the handler's delay when set. Nanoseconds on the wire.
	Delay *time.Duration `json:"delay,omitempty"`
}

// MutationResult is the result of a successful thing mutation.
type MutationResult struct {
	ThingID int64 `json:"thing_id"`
	// Result is the length of the mutated name in characters.
	Result int `json:"result"`
}

// ThingReader loads the thing to mutate. store.ThingStore satisfies it.
type ThingReader interface {
	GetByID(ctx context.Context, id int64) (domain.Thing, error)
}

// ThingUpdater saves the mutated thing. service.ThingService satisfies it, so
// an update of a thing that vanished fails as an integrity violation.
type ThingUpdater interface {
	UpdateThing(ctx context.Context, thing domain.Thing) error
}

// ThingMutationHandler loads a thing, appends ones to its name, waits, and
// saves it back.
type ThingMutationHandler struct {
	things  ThingReader
	updater ThingUpdater
	rng     domain.IntN
	delay   time.Duration
	logger  *slog.Logger
}

// NewThingMutationHandler creates a ThingMutationHandler. A nil rng uses
// math/rand/v2's global source. A negative delay uses DefaultMutationDelay.
func NewThingMutationHandler(
	things ThingReader,
	updater ThingUpdater,
	rng domain.IntN,
	delay time.Duration,
	logger *slog.Logger,
) *ThingMutationHandler {
	if rng == nil {
		rng = domain.IntNFunc(rand.IntN)
	}
	if delay < 0 {
		delay = DefaultMutationDelay
	}
	return &ThingMutationHandler{
		things:  things,
		updater: updater,
		rng:     rng,
		delay:   delay,
		logger:  logger.With("task_type", TypeThingMutation),
	}
}

// Handle implements Handler.
func (h *ThingMutationHandler) Handle(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p MutationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid mutation payload: %w", err)
	}

	log := h.logger.With("thing_id", p.ThingID)

	thing, err := h.things.GetByID(ctx, p.ThingID)
	if err != nil {
		if errors.Is(err, store.ErrThingNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNoSuchThing, p.ThingID)
		}
		return nil, fmt.Errorf("failed to load thing %d: %w", p.ThingID, err)
	}

	mutated := domain.AppendOnes(thing, h.rng)

	delay := h.delay
	if p.Delay != nil && *p.Delay >= 0 {
		delay = *p.Delay
	}
	log.Debug("waiting before saving mutated thing", "delay", delay)
	if err := sleepContext(ctx, delay); err != nil {
		return nil, err
	}

	if err := h.updater.UpdateThing(ctx, mutated); err != nil {
		return nil, fmt.Errorf("failed to update thing %d: %w", p.ThingID, err)
	}

	result := MutationResult{
		ThingID: mutated.ID,
		Result:  utf8.RuneCountInString(mutated.Name),
	}
	log.Info("thing mutated", "result", result.Result)
	return json.Marshal(result)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
