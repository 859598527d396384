package api

import (
	"net/http"
	"time"

	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/validation"
)

type eventCreateRequest struct {
	CameraStableString string   `json:"camera_stable_string"`
	EventTimestamp      *string  `json:"event_timestamp,omitempty"`
	MotionScore         float64  `json:"motion_score"`
	Confidence          *float64 `json:"confidence,omitempty"`
}

type eventResponse struct {
	ID                   int64    `json:"id"`
	CameraStableString   string   `json:"camera_stable_string"`
	EventTimestamp       string   `json:"event_timestamp"`
	MotionScore          float64  `json:"motion_score"`
	Confidence           *float64 `json:"confidence,omitempty"`
	Status               string   `json:"status"`
	ImageAPath           *string  `json:"image_a_path,omitempty"`
	ImageBPath           *string  `json:"image_b_path,omitempty"`
	ThumbnailPath        *string  `json:"thumbnail_path,omitempty"`
	VideoH264Path        *string  `json:"video_h264_path,omitempty"`
	VideoMP4Path         *string  `json:"video_mp4_path,omitempty"`
	VideoDuration        *float64 `json:"video_duration,omitempty"`
	ImageATransferred    bool     `json:"image_a_transferred"`
	ImageBTransferred    bool     `json:"image_b_transferred"`
	ThumbnailTransferred bool     `json:"thumbnail_transferred"`
	VideoH264Transferred bool     `json:"video_h264_transferred"`
	MP4ConversionStatus  string   `json:"mp4_conversion_status"`
	AIProcessed          bool     `json:"ai_processed"`
	AIPersonDetected     *bool    `json:"ai_person_detected,omitempty"`
	AIConfidence         *float64 `json:"ai_confidence,omitempty"`
	AIObjects            *string `json:"ai_objects,omitempty"`
	AIDescription        *string `json:"ai_description,omitempty"`
	AIPhrase             *string `json:"ai_phrase,omitempty"`
	AIError              *string `json:"ai_error,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func eventToResponse(e *store.Event) eventResponse {
	return eventResponse{
		ID:                   e.ID,
		CameraStableString:   e.CameraStableString,
		EventTimestamp:       e.EventTimestamp.Format(rfc3339),
		MotionScore:          e.MotionScore,
		Confidence:           e.Confidence,
		Status:               e.Status,
		ImageAPath:           e.ImageAPath,
		ImageBPath:           e.ImageBPath,
		ThumbnailPath:        e.ThumbnailPath,
		VideoH264Path:        e.VideoH264Path,
		VideoMP4Path:         e.VideoMP4Path,
		VideoDuration:        e.VideoDuration,
		ImageATransferred:    e.ImageATransferred,
		ImageBTransferred:    e.ImageBTransferred,
		ThumbnailTransferred: e.ThumbnailTransferred,
		VideoH264Transferred: e.VideoH264Transferred,
		MP4ConversionStatus:  e.MP4ConversionStatus,
		AIProcessed:          e.AIProcessed,
		AIPersonDetected:     e.AIPersonDetected,
		AIConfidence:         e.AIConfidence,
		AIObjects:            e.AIObjects,
		AIDescription:        e.AIDescription,
		AIPhrase:             e.AIPhrase,
		AIError:              e.AIError,
		CreatedAt:            e.CreatedAt.Format(rfc3339),
	}
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidationErr(w, r, err)
		return
	}
	if err := validation.ValidateEventCreate(validation.EventCreate{
		CameraStableString: req.CameraStableString,
		MotionScore:        req.MotionScore,
		Confidence:         req.Confidence,
	}); err != nil {
		respondValidationErr(w, r, err)
		return
	}

	ts := time.Now()
	if req.EventTimestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *req.EventTimestamp)
		if err != nil {
			respondValidationErr(w, r, err)
			return
		}
		ts = parsed
	}

	ev, err := s.Store.CreateEvent(r.Context(), req.CameraStableString, ts, req.MotionScore, req.Confidence)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventToResponse(ev))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	start, ok := timeParam(r, "timestamp_start")
	if !ok {
		respondValidationErr(w, r, errInvalidQueryParam("timestamp_start"))
		return
	}
	end, ok := timeParam(r, "timestamp_end")
	if !ok {
		respondValidationErr(w, r, errInvalidQueryParam("timestamp_end"))
		return
	}
	aiProcessed, ok := boolParam(r, "ai_processed")
	if !ok {
		respondValidationErr(w, r, errInvalidQueryParam("ai_processed"))
		return
	}

	filter := store.EventFilter{
		CameraStableString: r.URL.Query().Get("camera_stable_string"),
		TimestampStart:     start,
		TimestampEnd:       end,
		Status:             r.URL.Query().Get("status"),
		MP4Status:          r.URL.Query().Get("mp4_status"),
		AIProcessed:        aiProcessed,
	}

	events, total, err := s.Store.ListEvents(r.Context(), filter, pageFromQuery(r))
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = eventToResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out, "total": total})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondValidationErr(w, r, errInvalidQueryParam("id"))
		return
	}
	ev, err := s.Store.GetEvent(r.Context(), id)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventToResponse(ev))
}

func (s *Server) handleEventNeighbors(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondValidationErr(w, r, errInvalidQueryParam("id"))
		return
	}
	camera := r.URL.Query().Get("camera_stable_string")
	prev, next, err := s.Store.NeighborIDs(r.Context(), id, camera)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"previous_id": prev, "next_id": next})
}

type fileStatusRequest struct {
	Artifact string   `json:"artifact"`
	Path     string   `json:"path"`
	Duration *float64 `json:"duration,omitempty"`
}

func (s *Server) handleUpdateFileStatus(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondValidationErr(w, r, errInvalidQueryParam("id"))
		return
	}
	var req fileStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidationErr(w, r, err)
		return
	}
	if err := validation.ValidateFileStatusUpdate(validation.FileStatusUpdate{
		Artifact: req.Artifact,
		Path:     req.Path,
		Duration: req.Duration,
	}); err != nil {
		respondValidationErr(w, r, err)
		return
	}

	ev, err := s.Store.UpdateFileStatus(r.Context(), id, req.Artifact, req.Path, req.Duration)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventToResponse(ev))
}

type eventStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondValidationErr(w, r, errInvalidQueryParam("id"))
		return
	}
	var req eventStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidationErr(w, r, err)
		return
	}
	if err := validation.ValidateEventStatusUpdate(validation.EventStatusUpdate{TargetStatus: req.Status}); err != nil {
		respondValidationErr(w, r, err)
		return
	}

	ev, err := s.Store.UpdateEventStatus(r.Context(), id, req.Status)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventToResponse(ev))
}

func errInvalidQueryParam(name string) error {
	return &queryParamError{name: name}
}

type queryParamError struct{ name string }

func (e *queryParamError) Error() string { return "invalid query parameter: " + e.name }
