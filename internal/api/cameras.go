package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/validation"
)

type cameraRegistrationRequest struct {
	StableString string `json:"stable_string"`
	DisplayName  string `json:"display_name"`
	Location     string `json:"location"`
	NetworkAddr  string `json:"network_address"`
}

type cameraResponse struct {
	ID            int64   `json:"id"`
	StableString  string  `json:"stable_string"`
	DisplayName   string  `json:"display_name"`
	Location      string  `json:"location"`
	NetworkAddr   string  `json:"network_address"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	LastHeartbeat *string `json:"last_heartbeat,omitempty"`
}

func cameraToResponse(c *store.Camera) cameraResponse {
	resp := cameraResponse{
		ID:           c.ID,
		StableString: c.StableString,
		DisplayName:  c.DisplayName,
		Location:     c.Location,
		NetworkAddr:  c.NetworkAddr,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt.Format(rfc3339),
		UpdatedAt:    c.UpdatedAt.Format(rfc3339),
	}
	if c.LastHeartbeat != nil {
		s := c.LastHeartbeat.Format(rfc3339)
		resp.LastHeartbeat = &s
	}
	return resp
}

func (s *Server) handleRegisterCamera(w http.ResponseWriter, r *http.Request) {
	var req cameraRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidationErr(w, r, err)
		return
	}
	if err := validation.ValidateCameraRegistration(validation.CameraRegistration{
		StableString: req.StableString,
		DisplayName:  req.DisplayName,
		Location:     req.Location,
		NetworkAddr:  req.NetworkAddr,
	}); err != nil {
		respondValidationErr(w, r, err)
		return
	}

	cam, err := s.Store.RegisterCamera(r.Context(), req.StableString, req.DisplayName, req.Location, req.NetworkAddr)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cameraToResponse(cam))
}

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	cams, err := s.Store.ListCameras(r.Context())
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	out := make([]cameraResponse, len(cams))
	for i, c := range cams {
		out[i] = cameraToResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cameras": out})
}

func (s *Server) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	stableString := chi.URLParam(r, "stableString")
	cam, err := s.Store.GetCamera(r.Context(), stableString)
	if err != nil {
		respondStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cameraToResponse(cam))
}
