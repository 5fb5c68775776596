package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playermanager/internal/api/response"
	"github.com/mcoot/playermanager/internal/services/players"
)

// PlayerHandler handles managed player endpoints
type PlayerHandler struct {
	players *players.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *players.Service) *PlayerHandler {
	return &PlayerHandler{
		players: players,
	}
}

// List handles GET /api/v1/players and GET /api/playerManager/playerList
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.players.List())
}

// Get handles GET /api/v1/players/{name}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Get(mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/players/{name}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.players.Delete(mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
