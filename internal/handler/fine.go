package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

type FineHandler struct {
	fines     *service.FineService
	validator *validator.Validate
}

func NewFineHandler(fines *service.FineService) *FineHandler {
	return &FineHandler{
		fines:     fines,
		validator: validator.New(),
	}
}

// MyFines lists the caller's open fines with interest staged up to date.
func (h *FineHandler) MyFines(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	fines, err := h.fines.MemberFines(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, fines)
}

// Impose records a manual fine against a member.
func (h *FineHandler) Impose(w http.ResponseWriter, r *http.Request) {
	var req domain.ImposeFineRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	fine, err := h.fines.Impose(r.Context(), &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, fine)
}

// RunSweep triggers the missed-deposit compliance sweep on demand.
func (h *FineHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	imposed, err := h.fines.RunComplianceSweep(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]int{"fines_imposed": imposed})
}
