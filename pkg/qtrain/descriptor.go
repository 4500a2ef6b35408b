package qtrain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunDescriptor is the resolved record of one configured run. It is stored
// and handed out by value; a new configure replaces it wholesale.
type RunDescriptor struct {
	ID           string      `json:"id"`
	ConfigRef    string      `json:"config_ref"`
	Arguments    ArgumentSet `json:"arguments"`
	ConfiguredAt time.Time   `json:"configured_at"`
}

func newDescriptor(ref string, args ArgumentSet, now time.Time) (RunDescriptor, error) {
	// UUIDv7 keeps descriptor IDs sortable by creation time
	id, err := uuid.NewV7()
	if err != nil {
		return RunDescriptor{}, fmt.Errorf("failed to generate UUID: %w", err)
	}
	return RunDescriptor{
		ID:           id.String(),
		ConfigRef:    ref,
		Arguments:    args,
		ConfiguredAt: now,
	}, nil
}
