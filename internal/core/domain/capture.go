package domain

// CaptureStatus is the state of the backend packet capture.
type CaptureStatus struct {
	Running bool           `json:"running"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// CaptureAck is the backend answer to a start or stop command.
type CaptureAck struct {
	Status string `json:"status"`
}

// Capture command answers
const (
	CaptureStarted        = "Capture started"
	CaptureAlreadyStarted = "Capture already started"
	CaptureStopped        = "Capture stopped"
	CaptureAlreadyStopped = "Capture already stopped"
)
