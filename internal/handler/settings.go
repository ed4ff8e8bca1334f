package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

type SettingsHandler struct {
	settings  *service.SettingsService
	validator *validator.Validate
}

func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settings:  settings,
		validator: validator.New(),
	}
}

type updateSettingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// List returns every stored setting.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, settings)
}

// Update upserts one setting value.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.settings.Update(r.Context(), req.Key, req.Value); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{req.Key: req.Value})
}
