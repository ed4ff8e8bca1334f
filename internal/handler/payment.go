package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

// PaymentHandler exposes the payment event surface: the gateway callback,
// manual reports, admin review and entry, and claiming of unmatched payments.
type PaymentHandler struct {
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		validator: validator.New(),
	}
}

// GatewayCallback receives the payment gateway's asynchronous result.
func (h *PaymentHandler) GatewayCallback(w http.ResponseWriter, r *http.Request) {
	var cb domain.GatewayCallback
	if err := decodeAndValidate(r, h.validator, &cb); err != nil {
		response.BadRequest(w, "invalid callback", err)
		return
	}

	if err := h.payments.HandleGatewayCallback(r.Context(), &cb); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"result": "accepted"})
}

// ReportManual files a member's offline payment for review.
func (h *PaymentHandler) ReportManual(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.ManualDepositRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	txn, err := h.payments.RecordManualDeposit(r.Context(), memberID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, txn)
}

// Review is the admin decision on a pending manual report.
func (h *PaymentHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.payments.ReviewDeposit(r.Context(), &req); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"decision": req.Decision})
}

// AdminRecord books a payment confirmed out of band.
func (h *PaymentHandler) AdminRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminRecordRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	txn, err := h.payments.AdminRecord(r.Context(), &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, txn)
}

// Claim attaches an unmatched payment to the caller's account.
func (h *PaymentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.ClaimRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.payments.ClaimReference(r.Context(), memberID, &req); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"reference": req.Reference})
}

// PendingReview lists manual reports awaiting a decision.
func (h *PaymentHandler) PendingReview(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.ListPendingReview(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// ListAll lists recent transactions for the admin ledger.
func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.ListAll(r.Context(), queryLimit(r))
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// History lists the caller's payment events.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	items, err := h.payments.MemberHistory(r.Context(), memberID, queryLimit(r))
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}
