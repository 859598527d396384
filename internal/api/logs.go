package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/validation"
)

type logLineRequest struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type logIngestRequest struct {
	Lines []logLineRequest `json:"lines"`
}

type logLineResponse struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

func logLineToResponse(l *store.LogLine) logLineResponse {
	return logLineResponse{
		ID:        l.ID,
		Source:    l.Source,
		Timestamp: l.Timestamp.Format(rfc3339),
		Level:     l.Level,
		Message:   l.Message,
	}
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	var req logIngestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidationErr(w, r, err)
		return
	}
	if len(req.Lines) == 0 {
		RespondError(w, r, http.StatusBadRequest, ErrBadRequest, "lines")
		return
	}

	lines := make([]store.LogLineInput, len(req.Lines))
	for i, l := range req.Lines {
		if err := validation.ValidateLogLine(validation.LogLineInput{Source: l.Source, Level: l.Level, Message: l.Message}); err != nil {
			respondValidationErr(w, r, err)
			return
		}
		ts, err := time.Parse(time.RFC3339, l.Timestamp)
		if err != nil {
			respondValidationErr(w, r, err)
			return
		}
		lines[i] = store.LogLineInput{Source: l.Source, Timestamp: ts, Level: l.Level, Message: l.Message}
	}

	startID, count, err := s.Store.InsertLogBatch(r.Context(), lines)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"start_id": startID, "count": count})
}

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
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

	filter := store.LogFilter{
		Source:         r.URL.Query().Get("source"),
		TimestampStart: start,
		TimestampEnd:   end,
	}
	if levels := r.URL.Query()["level"]; len(levels) > 0 {
		filter.Levels = levels
	}
	oldestFirst := r.URL.Query().Get("order") == "asc"

	lines, total, err := s.Store.QueryLogs(r.Context(), filter, pageFromQuery(r), oldestFirst)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	out := make([]logLineResponse, len(lines))
	for i, l := range lines {
		out[i] = logLineToResponse(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": out, "total": total})
}

func (s *Server) handleQueryLogsSinceID(w http.ResponseWriter, r *http.Request) {
	watermark, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondValidationErr(w, r, errInvalidQueryParam("id"))
		return
	}

	filter := store.LogFilter{Source: r.URL.Query().Get("source")}
	if levels := r.URL.Query()["level"]; len(levels) > 0 {
		filter.Levels = levels
	}
	limit := intQuery(r, "limit", 100)

	lines, err := s.Store.QueryLogsSinceID(r.Context(), watermark, filter, limit)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	out := make([]logLineResponse, len(lines))
	for i, l := range lines {
		out[i] = logLineToResponse(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": out})
}
