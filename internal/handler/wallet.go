package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

// WalletHandler exposes balances, withdrawals, the deposit ledger and
// notifications.
type WalletHandler struct {
	balances  *service.BalanceService
	notifier  *service.Notifier
	validator *validator.Validate
}

func NewWalletHandler(balances *service.BalanceService, notifier *service.Notifier) *WalletHandler {
	return &WalletHandler{
		balances:  balances,
		notifier:  notifier,
		validator: validator.New(),
	}
}

// Balances returns the caller's savings and share capital.
func (h *WalletHandler) Balances(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	view, err := h.balances.Balances(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, view)
}

// FreeSavings returns the withdrawable portion of the caller's savings.
func (h *WalletHandler) FreeSavings(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	free, err := h.balances.FreeSavings(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"free_savings": free.String()})
}

// Withdraw debits the caller's savings within the free balance.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.WithdrawalRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	record, err := h.balances.RequestWithdrawal(r.Context(), memberID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, record)
}

// Ledger lists recent deposit ledger entries.
func (h *WalletHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	items, err := h.balances.LedgerEntries(r.Context(), queryLimit(r))
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// ShareRegister lists every member's share capital.
func (h *WalletHandler) ShareRegister(w http.ResponseWriter, r *http.Request) {
	rows, err := h.balances.ShareCapitalRegister(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, rows)
}

// Notifications lists the caller's recent notifications.
func (h *WalletHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	limit := queryLimit(r)
	if limit == 0 {
		limit = 50
	}
	items, err := h.notifier.ListForUser(r.Context(), memberID, limit)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}
