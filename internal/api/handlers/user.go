package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/course-catalog/internal/api/middleware"
	"github.com/dom/course-catalog/internal/api/response"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *service.UserService
	cfg   *config.Config
}

func NewUserHandler(users *service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, cfg: cfg}
}

type updateInfoRequest struct {
	Name string `json:"name"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

type updateRoleRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (h *UserHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	var req updateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	updated, err := h.users.UpdateInfo(r.Context(), user.ID, req.Name)
	if err != nil {
		h.writeError(w, "user.UpdateInfo", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"user": updated,
	})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		h.badRequest(w, "old and new password are required")
		return
	}

	updated, err := h.users.UpdatePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, "old password is incorrect", !h.cfg.IsProduction())
			return
		}
		h.writeError(w, "user.UpdatePassword", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "Password updated successfully",
		"user":    updated,
	})
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.unauthenticated(w)
		return
	}

	var req updateAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Avatar == "" {
		h.badRequest(w, "avatar is required")
		return
	}

	updated, err := h.users.UpdateAvatar(r.Context(), user.ID, req.Avatar)
	if err != nil {
		h.writeError(w, "user.UpdateAvatar", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"user": updated,
	})
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, "user.GetAll", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"users": users,
	})
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.ID)
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleAdmin {
		h.badRequest(w, "invalid role")
		return
	}

	updated, err := h.users.UpdateRole(r.Context(), userID, req.Role)
	if err != nil {
		h.writeError(w, "user.UpdateRole", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "User role updated successfully",
		"user":    updated,
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), userID); err != nil {
		h.writeError(w, "user.Delete", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "User deleted successfully",
	})
}

func (h *UserHandler) badRequest(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, message, !h.cfg.IsProduction())
}

func (h *UserHandler) unauthenticated(w http.ResponseWriter) {
	response.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error(), !h.cfg.IsProduction())
}

func (h *UserHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, domain.ErrUserNotFound.Error(), !h.cfg.IsProduction())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		response.Error(w, http.StatusInternalServerError, domain.ErrUpstreamUnavailable.Error(), !h.cfg.IsProduction())
	default:
		log.Printf("ERROR [handlers.%s] %v", op, err)
		response.Error(w, http.StatusInternalServerError, "internal server error", !h.cfg.IsProduction())
	}
}
