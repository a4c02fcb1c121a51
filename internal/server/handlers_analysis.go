package server

import (
	"net/http"
	"strings"
)

// handleFrontier handles GET /api/analysis/frontier. With no query the
// universe is every symbol held by any account; ?symbols=AAPL,MSFT narrows
// it to an explicit list.
func (s *Server) handleFrontier(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if raw == "" {
		inputs, err := s.app.RiskService.FrontierInputs(r.Context())
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, inputs)
		return
	}

	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	inputs, err := s.app.RiskService.FrontierInputsFor(r.Context(), symbols)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, inputs)
}
