package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/dom/course-catalog/internal/api/middleware"
	"github.com/dom/course-catalog/internal/api/response"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
	cfg  *config.Config
}

func NewAuthHandler(auth *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

type activateRequest struct {
	ActivationToken string `json:"activationToken"`
	ActivationCode  string `json:"activationCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialAuthRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.badRequest(w, "name, email and password are required")
		return
	}

	activationToken, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.badRequest(w, domain.ErrDuplicateEmail.Error())
		case errors.Is(err, domain.ErrMailDelivery):
			h.badRequest(w, domain.ErrMailDelivery.Error())
		default:
			h.serverError(w, "auth.Register", err)
		}
		return
	}

	// The activation code travels only by email.
	response.JSON(w, http.StatusCreated, map[string]any{
		"message":         fmt.Sprintf("Please check your email %s to activate your account", req.Email),
		"activationToken": activationToken,
	})
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.ActivationToken == "" || req.ActivationCode == "" {
		h.badRequest(w, "activation token and code are required")
		return
	}

	if _, err := h.auth.Activate(r.Context(), req.ActivationToken, req.ActivationCode); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidToken):
			h.badRequest(w, domain.ErrInvalidToken.Error())
		case errors.Is(err, domain.ErrCodeMismatch):
			h.badRequest(w, domain.ErrCodeMismatch.Error())
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.badRequest(w, domain.ErrDuplicateEmail.Error())
		default:
			h.serverError(w, "auth.Activate", err)
		}
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "User activated successfully",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.badRequest(w, "email and password are required")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error(), !h.cfg.IsProduction())
			return
		}
		h.serverError(w, "auth.Login", err)
		return
	}

	h.writeSession(w, result)
}

func (h *AuthHandler) SocialAuth(w http.ResponseWriter, r *http.Request) {
	var req socialAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		h.badRequest(w, "email is required")
		return
	}

	result, err := h.auth.SocialLogin(r.Context(), req.Email, req.Name, req.Avatar)
	if err != nil {
		h.serverError(w, "auth.SocialAuth", err)
		return
	}

	h.writeSession(w, result)
}

// RefreshToken is the terminal stage after the RefreshSession middleware:
// it surfaces the freshly minted access token as a cookie and in the body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := middleware.AccessTokenFromContext(r.Context())
	if !ok {
		h.serverError(w, "auth.RefreshToken", errors.New("refresh stage did not run"))
		return
	}

	setAccessCookie(w, h.cfg, accessToken)
	response.JSON(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error(), !h.cfg.IsProduction())
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		h.serverError(w, "auth.Logout", err)
		return
	}

	clearSessionCookies(w, h.cfg)
	response.JSON(w, http.StatusOK, map[string]any{
		"message": "User logged out successfully",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error(), !h.cfg.IsProduction())
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"user": user,
	})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, result *service.AuthResult) {
	setSessionCookies(w, h.cfg, result.AccessToken, result.RefreshToken)
	response.JSON(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"access_token": result.AccessToken,
	})
}

func (h *AuthHandler) badRequest(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, message, !h.cfg.IsProduction())
}

func (h *AuthHandler) serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("ERROR [handlers.%s] %v", op, err)
	status := http.StatusInternalServerError
	message := "internal server error"
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		message = domain.ErrUpstreamUnavailable.Error()
	}
	response.Error(w, status, message, !h.cfg.IsProduction())
}
