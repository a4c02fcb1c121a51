package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *common.AccountContext {
	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	if ac.Role != "admin" {
		WriteError(w, http.StatusForbidden, "Admin access required")
		return nil
	}
	return ac
}

// handleAdminTransactions handles GET /api/admin/transactions: every
// transaction across all accounts, for audit and reconciliation.
func (s *Server) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	txns, err := s.app.Storage.Transactions().ListAll(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	type adminTransactionView struct {
		transactionView
		AccountID string `json:"account_id"`
	}
	views := make([]adminTransactionView, len(txns))
	for i, t := range txns {
		views[i] = adminTransactionView{
			transactionView: toTransactionView(t),
			AccountID:       t.AccountID,
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": views})
}

// userView is the admin-facing account row; the password hash never leaves
// the store.
type userView struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// handleAdminUsers handles GET /api/admin/users: every registered account.
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	users, err := s.app.Storage.InternalStore().ListUsers(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = userView{
			AccountID: u.AccountID,
			Username:  u.Username,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// handleAdminUser handles the per-account admin operations:
// DELETE /api/admin/users/{id} removes the account, and
// PUT /api/admin/users/{id}/password resets its password.
func (s *Server) handleAdminUser(w http.ResponseWriter, r *http.Request) {
	ac := s.requireAdmin(w, r)
	if ac == nil {
		return
	}

	store := s.app.Storage.InternalStore()

	if strings.HasSuffix(r.URL.Path, "/password") {
		if !RequireMethod(w, r, http.MethodPut) {
			return
		}
		accountID := PathParam(r, "/api/admin/users/", "/password")

		var req changePasswordRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Password == "" {
			WriteError(w, http.StatusBadRequest, "Password is required")
			return
		}

		user, err := store.GetUser(r.Context(), accountID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		user.PasswordHash = string(hash)
		if err := store.SaveUser(r.Context(), user); err != nil {
			WriteDomainError(w, err)
			return
		}

		s.logger.Info().Str("account", accountID).Msg("Password reset by admin")
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
		return
	}

	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	accountID := PathParam(r, "/api/admin/users/", "")
	if accountID == ac.AccountID {
		WriteError(w, http.StatusConflict, "Cannot delete the account you are logged in as")
		return
	}

	// Resolve first so removing a missing account reports 404 instead of
	// silently succeeding.
	if _, err := store.GetUser(r.Context(), accountID); err != nil {
		WriteDomainError(w, err)
		return
	}
	if err := store.DeleteUser(r.Context(), accountID); err != nil {
		WriteDomainError(w, err)
		return
	}

	s.logger.Info().Str("account", accountID).Msg("Account deleted by admin")
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

type amendTransactionRequest struct {
	AccountID     string `json:"account_id"`
	Symbol        string `json:"symbol"`
	Shares        string `json:"shares"`
	PricePerShare string `json:"price_per_share"`
	Kind          string `json:"kind"`
	Date          string `json:"date"` // RFC 3339
}

// handleAdminTransactionReplace handles PUT /api/admin/transactions/{id}:
// replace a transaction record in place. Holdings are not recomputed; the
// caller is expected to rebuild affected accounts afterwards.
func (s *Server) handleAdminTransactionReplace(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	idStr := PathParam(r, "/api/admin/transactions/", "")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid transaction id: "+idStr)
		return
	}

	var req amendTransactionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid shares: "+req.Shares)
		return
	}
	price, err := decimal.NewFromString(req.PricePerShare)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid price_per_share: "+req.PricePerShare)
		return
	}
	kind, err := models.ParseOrderKind(req.Kind)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid date, expected RFC 3339: "+req.Date)
		return
	}

	txn := &models.Transaction{
		AccountID:     req.AccountID,
		Symbol:        req.Symbol,
		Shares:        shares,
		PricePerShare: price,
		Kind:          kind,
		Date:          date,
	}
	if err := s.app.LedgerService.AmendTransaction(r.Context(), id, txn); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction updated"})
}
