package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

type DividendHandler struct {
	dividends *service.DividendService
	validator *validator.Validate
}

func NewDividendHandler(dividends *service.DividendService) *DividendHandler {
	return &DividendHandler{
		dividends: dividends,
		validator: validator.New(),
	}
}

// Declare records one dividend per financial year.
func (h *DividendHandler) Declare(w http.ResponseWriter, r *http.Request) {
	adminID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.DeclareDividendRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	dividend, err := h.dividends.Declare(r.Context(), adminID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, dividend)
}

// Allocate splits a declared dividend across shareholders.
func (h *DividendHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	dividendID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.AllocateRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	allocations, err := h.dividends.Allocate(r.Context(), dividendID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, allocations)
}

// List returns every declared dividend.
func (h *DividendHandler) List(w http.ResponseWriter, r *http.Request) {
	dividends, err := h.dividends.ListAll(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, dividends)
}
