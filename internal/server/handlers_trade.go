package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Action   string `json:"action"`
	Quantity string `json:"quantity"` // decimal string, e.g. "10" or "2.5"
	Price    string `json:"price"`    // decimal string
}

type tradeResponse struct {
	TransactionID uint64 `json:"transaction_id"`
	Message       string `json:"message"`
}

// handleTrade handles POST /api/trade: record the transaction, then apply
// it to the account's holdings.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Please log in to trade")
		return
	}

	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid quantity: "+req.Quantity)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid price: "+req.Price)
		return
	}
	kind, err := models.ParseOrderKind(req.Action)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	txn, err := s.app.LedgerService.ExecuteTrade(r.Context(), ac.AccountID, req.Symbol, quantity, price, kind)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tradeResponse{
		TransactionID: txn.ID,
		Message:       "Order to " + req.Action + " " + req.Quantity + " shares of " + req.Symbol + " was successful",
	})
}

// transactionView is the reporting shape of a trade record, carrying the
// signed cash total (negative for buys, positive for sells).
type transactionView struct {
	ID            uint64 `json:"id"`
	Symbol        string `json:"symbol"`
	Shares        string `json:"shares"`
	PricePerShare string `json:"price_per_share"`
	Kind          string `json:"kind"`
	Date          string `json:"date"`
	Total         string `json:"total"`
}

func toTransactionView(t models.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		Symbol:        t.Symbol,
		Shares:        t.Shares.String(),
		PricePerShare: t.PricePerShare.String(),
		Kind:          string(t.Kind),
		Date:          t.Date.Format("2006-01-02T15:04:05Z07:00"),
		Total:         t.SignedTotal().String(),
	}
}

// handleHistorical handles GET /api/historical: the account's transactions
// ordered by date ascending.
func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Please log in to view transaction history")
		return
	}

	txns, err := s.app.LedgerService.History(r.Context(), ac.AccountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	views := make([]transactionView, len(txns))
	for i, t := range txns {
		views[i] = toTransactionView(t)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": views})
}
