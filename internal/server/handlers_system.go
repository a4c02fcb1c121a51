package server

import (
	"net/http"
	"time"

	"github.com/xuanruli/apex-trade/internal/app"
	"github.com/xuanruli/apex-trade/internal/common"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	body := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	}
	if last, err := s.app.Storage.InternalStore().GetSystemKV(r.Context(), app.LastRefreshKey); err == nil {
		body["last_price_refresh"] = last
	}

	WriteJSON(w, http.StatusOK, body)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}
