package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/api/middleware"
	"github.com/taskline/taskline-api/internal/api/shared"
	"github.com/taskline/taskline-api/internal/service"
)

// AssistantRequest is the request body for one assistant message.
type AssistantRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
}

// AssistantHandler handles natural-language assistant requests.
type AssistantHandler struct {
	assistant *service.AssistantService
	validator *validator.Validate
}

// NewAssistantHandler creates an AssistantHandler.
func NewAssistantHandler(assistant *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		validator: validator.New(),
	}
}

// Chat handles POST /api/assistant requests.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AssistantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	response, err := h.assistant.ProcessMessage(r.Context(), userID, req.Message)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
