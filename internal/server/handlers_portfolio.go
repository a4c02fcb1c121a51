package server

import (
	"net/http"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

// handlePortfolio handles GET /api/portfolio: per-symbol detail rows priced
// at the latest close. Symbols with no price data are omitted.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Please log in to view your portfolio")
		return
	}

	details, err := s.app.ValuationService.HoldingDetails(r.Context(), ac.AccountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if details == nil {
		details = []models.HoldingDetail{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"holdings": details})
}

// handlePortfolioSummary handles GET /api/portfolio/summary: account-level
// totals. Unpriced symbols still count toward shares and cost.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Please log in to view your portfolio")
		return
	}

	summary, err := s.app.ValuationService.Summary(r.Context(), ac.AccountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
