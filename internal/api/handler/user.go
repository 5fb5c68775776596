package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playermanager/internal/api/middleware"
	"github.com/mcoot/playermanager/internal/api/request"
	"github.com/mcoot/playermanager/internal/api/response"
	"github.com/mcoot/playermanager/internal/services/auth"
)

// UserHandler handles login, logout and user account endpoints
type UserHandler struct {
	authService *auth.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, response.LoginResponseFromResult(result))
}

// Logout handles POST /api/v1/users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	response.NoContent(w)
}

// Permissions handles GET /api/v1/permissions
func (h *UserHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, middleware.MustGetPermissions(r.Context()))
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	perms := middleware.MustGetPermissions(r.Context())
	response.JSON(w, http.StatusOK, h.authService.ListUsers(perms))
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	user, err := h.authService.CreateUser(r.Context(), auth.CreateUserRequest{
		Name:              req.Name,
		Password:          req.Password,
		Email:             req.Email,
		Admin:             req.Admin,
		FactorioLinkToken: req.FactorioLinkToken,
		Description:       req.Description,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	perms := middleware.MustGetPermissions(r.Context())
	response.JSON(w, http.StatusCreated, auth.View(perms, user))
}

// Update handles PATCH /api/v1/users/{name}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	patch := auth.UserPatch{
		Password:          req.Password,
		Email:             req.Email,
		Admin:             req.Admin,
		FactorioLinkToken: req.FactorioLinkToken,
		Description:       req.Description,
	}
	if len(patch.Fields()) == 0 {
		WriteError(w, NewInvalidRequestError("no fields to update"))
		return
	}

	perms := middleware.MustGetPermissions(r.Context())
	user, err := h.authService.UpdateUser(r.Context(), perms, mux.Vars(r)["name"], patch)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, auth.View(perms, user))
}
