package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/playermanager/internal/api/request"
	"github.com/mcoot/playermanager/internal/api/response"
	"github.com/mcoot/playermanager/internal/services/commands"
)

// CommandHandler handles command broadcast endpoints
type CommandHandler struct {
	dispatcher *commands.Dispatcher
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(dispatcher *commands.Dispatcher) *CommandHandler {
	return &CommandHandler{
		dispatcher: dispatcher,
	}
}

// Broadcast handles POST /api/v1/commands
func (h *CommandHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req request.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	command := strings.TrimSpace(req.Command)
	if command == "" {
		WriteError(w, NewInvalidRequestError("command is required"))
		return
	}

	results := h.dispatcher.BroadcastCommand(r.Context(), command)
	response.JSON(w, http.StatusOK, response.CommandResponse{
		Command: command,
		Results: response.CommandResultsFromResults(results),
	})
}
