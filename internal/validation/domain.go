package validation

// Enum members shared between the validation layer, the store, and the API
// payloads. Kept here rather than in the store package so handlers can
// validate before any Store access, per the pure-validation contract.
const (
	EventStatusProcessing  = "processing"
	EventStatusComplete    = "complete"
	EventStatusInterrupted = "interrupted"
	EventStatusFailed      = "failed"

	MP4StatusPending    = "pending"
	MP4StatusProcessing = "processing"
	MP4StatusComplete   = "complete"
	MP4StatusOptimized  = "optimized"
	MP4StatusFailed     = "failed"

	LogLevelInfo    = "INFO"
	LogLevelWarning = "WARNING"
	LogLevelError   = "ERROR"

	ArtifactImageA    = "image_a"
	ArtifactImageB    = "image_b"
	ArtifactThumbnail = "thumbnail"
	ArtifactVideoH264 = "video_h264"
)

// EventStatusTargets lists the only statuses a client may request as the
// target of an update-event-status call.
var EventStatusTargets = []string{EventStatusComplete, EventStatusInterrupted, EventStatusFailed}

// LogLevels lists the three severities a log line may carry.
var LogLevels = []string{LogLevelInfo, LogLevelWarning, LogLevelError}

// ArtifactKinds lists the four artifact slots update-file-status may target.
var ArtifactKinds = []string{ArtifactImageA, ArtifactImageB, ArtifactThumbnail, ArtifactVideoH264}

// CameraRegistration is the transport shape for registering a camera.
type CameraRegistration struct {
	StableString  string
	DisplayName   string
	Location      string
	NetworkAddr   string
}

// ValidateCameraRegistration checks a camera registration payload.
func ValidateCameraRegistration(r CameraRegistration) error {
	v := New()
	v.CameraStableString("stable_string", r.StableString)
	v.NotEmpty("display_name", r.DisplayName)
	v.MaxLen("display_name", r.DisplayName, 255)
	v.MaxLen("location", r.Location, 255)
	v.MaxLen("network_address", r.NetworkAddr, 255)
	return v.Err()
}

// EventCreate is the transport shape for creating an event.
type EventCreate struct {
	CameraStableString string
	MotionScore        float64
	Confidence         *float64
}

// ValidateEventCreate checks an event creation payload.
func ValidateEventCreate(e EventCreate) error {
	v := New()
	v.CameraStableString("camera_stable_string", e.CameraStableString)
	v.NonNegativeFloat("motion_score", e.MotionScore)
	if e.Confidence != nil {
		v.Range("confidence", *e.Confidence, 0, 100)
	}
	return v.Err()
}

// FileStatusUpdate is the transport shape for progressive artifact updates.
type FileStatusUpdate struct {
	Artifact string
	Path     string
	Duration *float64
}

// ValidateFileStatusUpdate checks an update-file-status payload.
func ValidateFileStatusUpdate(f FileStatusUpdate) error {
	v := New()
	v.OneOf("artifact", f.Artifact, ArtifactKinds)
	v.RelativePath("path", f.Path)
	if f.Duration != nil {
		v.NonNegative("duration", int(*f.Duration))
		if f.Artifact != ArtifactVideoH264 {
			v.AddError("duration", "only meaningful for artifact video_h264", f.Artifact)
		}
	}
	return v.Err()
}

// EventStatusUpdate is the transport shape for terminal status transitions.
type EventStatusUpdate struct {
	TargetStatus string
}

// ValidateEventStatusUpdate checks an update-event-status payload.
func ValidateEventStatusUpdate(u EventStatusUpdate) error {
	v := New()
	v.OneOf("status", u.TargetStatus, EventStatusTargets)
	return v.Err()
}

// LogLineInput is the transport shape for one ingested log line.
type LogLineInput struct {
	Source  string
	Level   string
	Message string
}

// ValidateLogLine checks a single log line within an ingest batch.
func ValidateLogLine(l LogLineInput) error {
	v := New()
	v.SourceName("source", l.Source)
	v.OneOf("level", l.Level, LogLevels)
	v.NotEmpty("message", l.Message)
	v.MaxLen("message", l.Message, 16384)
	return v.Err()
}

// AIConfidenceRange validates the [0,1] fractional convention standardized
// for ai_confidence (distinct from the [0,100] event-level confidence).
func (v *Validator) AIConfidenceRange(field string, value float64) {
	v.Range(field, value, 0, 1)
}

// PhraseMaxLen is the ≤500-char bound on the AI Worker's short phrase field.
const PhraseMaxLen = 500
