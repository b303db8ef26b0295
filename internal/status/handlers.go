package status

import (
	"encoding/json"
	"net/http"
	"time"

	"serialbridge/internal/bridge"
)

// HealthzResponse 健康检查响应
type HealthzResponse struct {
	Status    string    `json:"status"`
	Session   string    `json:"session,omitempty"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int64     `json:"uptime_seconds"`
	Version   string    `json:"version,omitempty"`
}

// ResponseData 统一响应格式
type ResponseData struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// handleHealthz 会话运行中返回 200，其余状态返回 503
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:    "unhealthy",
		State:     bridge.StatePending.String(),
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	}

	statusCode := http.StatusServiceUnavailable
	if p := s.getProvider(); p != nil {
		stats := p.Stats()
		resp.Session = stats.ID
		resp.State = stats.State
		if stats.State == bridge.StateRunning.String() {
			resp.Status = "healthy"
			statusCode = http.StatusOK
		}
	}

	writeJSON(w, statusCode, resp)
}

// handleStatus 返回会话快照
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	p := s.getProvider()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, ResponseData{Success: true, Data: p.Stats()})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ResponseData{Success: false, Error: message})
}
