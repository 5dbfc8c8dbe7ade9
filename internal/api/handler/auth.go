package handler

import (
	"net/http"

	"github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
)

type Auth struct {
	svc   *core.AuthService
	users *core.UserService
}

func NewAuth(svc *core.AuthService, users *core.UserService) *Auth {
	return &Auth{svc: svc, users: users}
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Me returns the user behind the current session.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.Sub)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"user": user,
		"role": claims.Role,
	})
}
