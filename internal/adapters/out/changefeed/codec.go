package changefeed

import (
	"encoding/json"
	"fmt"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"
)

// wireChange is the JSON form of a change sent between processes.
type wireChange struct {
	Kind    string `json:"kind"`
	TaskID  string `json:"taskId"`
	Deleted bool   `json:"deleted,omitempty"`
}

func encodeChange(c ports.Change) ([]byte, error) {
	return json.Marshal(wireChange{Kind: c.Kind.String(), TaskID: c.TaskID.String(), Deleted: c.Deleted})
}

func decodeChange(payload []byte) (ports.Change, error) {
	var w wireChange
	if err := json.Unmarshal(payload, &w); err != nil {
		return ports.Change{}, fmt.Errorf("decode change: %w", err)
	}

	var kind ports.ChangeKind
	switch w.Kind {
	case ports.TaskChanged.String():
		kind = ports.TaskChanged
	case ports.MessageAppended.String():
		kind = ports.MessageAppended
	default:
		return ports.Change{}, fmt.Errorf("decode change: unknown kind %q", w.Kind)
	}

	id, err := kernel.UUIDFromString(w.TaskID)
	if err != nil {
		return ports.Change{}, fmt.Errorf("decode change: %w", err)
	}

	return ports.Change{Kind: kind, TaskID: id, Deleted: w.Deleted}, nil
}
