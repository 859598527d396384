package api

import "net/http"

func (s *Server) handleCameraStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.CameraStats(r.Context())
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cameras": stats})
}

func (s *Server) handleStatusStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.StatusStats(r.Context())
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": stats})
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "days", 30)
	stats, err := s.Store.DailyStats(r.Context(), limit)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"daily": stats})
}
