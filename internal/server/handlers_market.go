package server

import (
	"net/http"
	"strings"
)

// handleAsset returns the latest stored close for a single symbol.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol parameter")
		return
	}

	price, ok, err := s.app.MarketService.LatestClose(r.Context(), symbol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "No price data for symbol")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	})
}
