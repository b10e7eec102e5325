package store

import (
	"encoding/json"
	"time"
)

// SnapshotEvery is how many product versions separate two snapshots.
const SnapshotEvery = 10

// Snapshot is the serialized aggregate at Version. Loading resumes from the
// events after it.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ShouldSnapshot(version int) bool {
	return version > 0 && version%SnapshotEvery == 0
}
