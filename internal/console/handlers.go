package console

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/aldermoor/sentrycam-core/internal/delivery"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.deps.Version})
}

// handleToken exchanges the shared console secret for a short-lived JWT.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.Secret), []byte(s.cfg.JWT.Secret)) != 1 {
		s.logger.Warn("console token request with wrong secret", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "wrong secret")
		return
	}

	token, err := GenerateToken("operator", s.cfg.JWT.Secret, s.cfg.JWT.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "minting token failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"GET /api/v1/status":              "lifecycle state and config summary",
		"GET /api/v1/stats":               "delivery statistics",
		"GET /api/v1/memory":              "runtime memory usage",
		"GET /api/v1/network/scan":        "visible networks",
		"POST /api/v1/restart":            "request a clean restart",
		"POST /api/v1/reset":              "factory reset, then restart",
		"POST /api/v1/capture/test":       "capture a still frame",
		"POST /api/v1/send":               "send a chat message to the owner",
		"POST /api/v1/provisioning/start": "force the setup bearer up",
		"POST /api/v1/provisioning/stop":  "force the setup bearer down",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Store.Current()

	status := map[string]any{
		"device_id":       cfg.DeviceID,
		"display_name":    cfg.DisplayName,
		"config_version":  cfg.ConfigVersion,
		"provisioned":     cfg.Provisioned,
		"operation_valid": cfg.IsOperationValid(),
		"unsaved_changes": s.deps.Store.Unsaved(),
		"version":         s.deps.Version,
	}
	if s.deps.Lifecycle != nil {
		status["state"] = s.deps.Lifecycle.State().String()
	}
	if s.deps.Scanner != nil {
		status["network"] = s.deps.Scanner.Active()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "statistics not available")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Stats.Snapshot())
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	writeJSON(w, http.StatusOK, map[string]any{
		"alloc_bytes":       m.Alloc,
		"total_alloc_bytes": m.TotalAlloc,
		"sys_bytes":         m.Sys,
		"heap_objects":      m.HeapObjects,
		"num_gc":            m.NumGC,
		"goroutines":        runtime.NumGoroutine(),
	})
}

func (s *Server) handleNetworkScan(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "network scanning not available")
		return
	}
	networks, err := s.deps.Scanner.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if networks == nil {
		networks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": networks})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if s.deps.Lifecycle == nil {
		writeError(w, http.StatusServiceUnavailable, "lifecycle not available")
		return
	}
	s.deps.Lifecycle.RequestRestart("console restart")
	s.Broadcast("restart_requested", nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restart requested"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.ResetDefaults(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.deps.Lifecycle != nil {
		s.deps.Lifecycle.RequestRestart("console factory reset")
	}
	s.Broadcast("factory_reset", nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset, restart requested"})
}

func (s *Server) handleTestCapture(w http.ResponseWriter, r *http.Request) {
	if s.deps.Camera == nil {
		writeError(w, http.StatusServiceUnavailable, "camera not available")
		return
	}
	frame, err := s.deps.Camera.Capture(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sender == nil {
		writeError(w, http.StatusServiceUnavailable, "delivery not available")
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	owner := s.deps.Store.Current().OwnerEndpoint
	if owner == "" {
		writeError(w, http.StatusConflict, "no owner endpoint configured")
		return
	}

	msg := delivery.Message{Endpoint: owner, Content: body.Text}
	if err := s.deps.Sender.Send(r.Context(), msg); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleProvisioningStart(w http.ResponseWriter, r *http.Request) {
	if s.deps.Setup == nil {
		writeError(w, http.StatusServiceUnavailable, "setup bearer not available")
		return
	}
	if err := s.deps.Setup.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Broadcast("provisioning_started", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "provisioning transport up"})
}

func (s *Server) handleProvisioningStop(w http.ResponseWriter, r *http.Request) {
	if s.deps.Setup == nil {
		writeError(w, http.StatusServiceUnavailable, "setup bearer not available")
		return
	}
	if err := s.deps.Setup.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Broadcast("provisioning_stopped", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "provisioning transport down"})
}
