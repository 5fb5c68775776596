package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playermanager/internal/api/middleware"
	"github.com/mcoot/playermanager/internal/api/request"
	"github.com/mcoot/playermanager/internal/api/response"
	"github.com/mcoot/playermanager/internal/services/database"
)

// ListHandler serves one name list (whitelist or banlist)
type ListHandler struct {
	list   *database.NameList
	logger *slog.Logger
}

// NewListHandler creates a handler for list
func NewListHandler(list *database.NameList, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		list:   list,
		logger: logger,
	}
}

// List handles GET /api/v1/{whitelist,banlist}
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.NameList{Names: h.list.List()})
}

// Add handles POST /api/v1/{whitelist,banlist}
func (h *ListHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.ListEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	added, err := h.list.Add(req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
		h.logger.Info("name listed",
			"list", h.list.Name(),
			"name", req.Name,
			"by", middleware.MustGetPermissions(r.Context()).Principal,
		)
	}
	response.JSON(w, status, response.ListChange{Name: req.Name, Added: added})
}

// Remove handles DELETE /api/v1/{whitelist,banlist}/{name}
func (h *ListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.list.Remove(name); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("name unlisted",
		"list", h.list.Name(),
		"name", name,
		"by", middleware.MustGetPermissions(r.Context()).Principal,
	)
	response.NoContent(w)
}
