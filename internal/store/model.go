package store

import "time"

// Camera is the persistence record for a registered ingest endpoint.
type Camera struct {
	ID            int64
	StableString  string
	DisplayName   string
	Location      string
	NetworkAddr   string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// Event is the persistence record for one motion incident.
type Event struct {
	ID                 int64
	CameraStableString string
	EventTimestamp     time.Time
	MotionScore        float64
	Confidence         *float64

	Status string // processing | complete | interrupted | failed

	ImageAPath     *string
	ImageBPath     *string
	ThumbnailPath  *string
	VideoH264Path  *string
	VideoMP4Path   *string
	VideoDuration  *float64

	ImageATransferred     bool
	ImageBTransferred     bool
	ThumbnailTransferred  bool
	VideoH264Transferred  bool

	MP4ConversionStatus string // pending | processing | complete | optimized | failed
	MP4ConvertedAt      *time.Time
	ClaimHolder         *string
	ClaimedAt           *time.Time

	AIProcessed      bool
	AIProcessedAt    *time.Time
	AIPersonDetected *bool
	AIConfidence     *float64
	AIObjects        *string
	AIDescription    *string
	AIPhrase         *string
	AIError          *string

	CreatedAt time.Time
}

// LogLine is one append-only diagnostic record.
type LogLine struct {
	ID        int64
	Source    string
	Timestamp time.Time
	Level     string
	Message   string
}

// Page bounds a (limit, offset) query. The total row count matching the
// filter is returned separately by the list functions, not carried here.
type Page struct {
	Limit  int
	Offset int
}

// MaxPageLimit is the hard cap enforced on every paginated query regardless
// of the caller-requested limit.
const MaxPageLimit = 500

// Clamp returns a limit/offset pair with the limit bounded to
// [1, MaxPageLimit] and the offset floored at 0.
func (p Page) Clamp() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
