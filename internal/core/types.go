package core

import (
	"time"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// UploadPhase indicates the current stage of upload processing.
type UploadPhase string

const (
	PhaseStarting    UploadPhase = "starting"
	PhaseReading     UploadPhase = "reading"
	PhaseReconciling UploadPhase = "reconciling"
	PhaseComplete    UploadPhase = "complete"
	PhaseFailed      UploadPhase = "failed"
	PhaseCancelled   UploadPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p UploadPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// UploadProgress is a snapshot of one running upload.
type UploadProgress struct {
	UploadID   string      `json:"upload_id"`
	Phase      UploadPhase `json:"phase"`
	FileName   string      `json:"file_name"`
	TotalRows  int         `json:"total_rows"`
	CurrentRow int         `json:"current_row"`
	Inserted   int         `json:"inserted"`
	Updated    int         `json:"updated"`
	Skipped    int         `json:"skipped"`
	Error      string      `json:"error,omitempty"` // set when Phase is failed or cancelled

	// Byte progress while the file is parsed, before rows are known.
	BytesRead  int64 `json:"bytes_read"`
	BytesTotal int64 `json:"bytes_total"`
}

// Percent returns the progress as a percentage (0-100).
// Row progress wins once the row count is known.
func (p UploadProgress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.TotalRows > 0 {
		return (p.CurrentRow * 100) / p.TotalRows
	}
	if p.BytesTotal > 0 {
		return int((p.BytesRead * 100) / p.BytesTotal)
	}
	return 0
}

// UploadResult is the final state of an upload.
type UploadResult struct {
	UploadID string          `json:"upload_id"`
	FileName string          `json:"file_name"`
	Phase    UploadPhase     `json:"phase"`
	Outcome  catalog.Outcome `json:"outcome"`
	Duration time.Duration   `json:"duration_ns"`
	Error    string          `json:"error,omitempty"`
}

// PreviewUpdate is a staged partial update of an existing product.
type PreviewUpdate struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// PreviewResult is the outcome a batch would have, plus samples of what it
// would write.
type PreviewResult struct {
	Outcome       catalog.Outcome     `json:"outcome"`
	NewSamples    []map[string]string `json:"new_samples"`
	UpdateSamples []PreviewUpdate     `json:"update_samples"`
}

// Sample limits for previews.
const (
	maxNewSamples    = 10
	maxUpdateSamples = 10
)
