package log

// Canonical field name constants for structured logging.
const (
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldJobID         = "job_id"
	FieldEvent         = "event"
	FieldComponent     = "component"

	FieldCameraID = "camera_id"
	FieldEventID  = "event_id"
	FieldWorker   = "worker"
	FieldClaimant = "claimant"
	FieldPath     = "path"
)
