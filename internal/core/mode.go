package core

// DefaultSyncThreshold is the largest payload imported inside the request.
const DefaultSyncThreshold int64 = 1 << 20

// Mode is the execution path chosen for an import.
type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeDeferred  Mode = "deferred"
)

// ModeSelector picks the execution path from the payload size. It only
// chooses who runs the Importer, never how rows are processed.
type ModeSelector struct {
	Threshold int64
}

// Select returns ModeImmediate for sizes at or below the threshold.
func (m ModeSelector) Select(size int64) Mode {
	if size <= m.Threshold {
		return ModeImmediate
	}
	return ModeDeferred
}
