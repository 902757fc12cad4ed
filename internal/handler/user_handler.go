package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/WinterTin/user-center/internal/cqrs"
	"github.com/WinterTin/user-center/internal/middleware"
	"github.com/WinterTin/user-center/internal/models"
	"github.com/WinterTin/user-center/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// AccountManager defines the account operations used by UserHandler.
type AccountManager interface {
	Register(context.Context, cqrs.RegisterCommand) (int64, error)
	Login(context.Context, cqrs.LoginCommand, service.Session) (*models.UserView, error)
	Logout(context.Context, service.Session) (int, error)
	CurrentUser(context.Context, service.Session) (*models.UserView, error)
	ListUsers(context.Context, service.Session) ([]models.UserView, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand, service.Session) (int64, error)
}

// UserHandler adapts HTTP requests to AccountManager calls. The session
// comes from the gin-contrib/sessions middleware.
type UserHandler struct {
	accounts AccountManager
}

type RegisterRequest struct {
	UserAccount   string     `json:"userAccount" validate:"required"`
	UserPassword  string     `json:"userPassword" validate:"required"`
	CheckPassword string     `json:"checkPassword" validate:"required"`
	PlanetCode    PlanetCode `json:"planetCode" validate:"required"`
}

// PlanetCode accepts the code as a JSON string or an integer. Older
// clients send it as a number.
type PlanetCode string

func (p *PlanetCode) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PlanetCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("planetCode must be a string or an integer: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("planetCode must be a string or an integer: %w", err)
	}
	*p = PlanetCode(n.String())
	return nil
}

type LoginRequest struct {
	UserAccount  string `json:"userAccount" validate:"required"`
	UserPassword string `json:"userPassword" validate:"required"`
}

func NewUserHandler(accounts AccountManager) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// RegisterRoutes mounts the account endpoints on group.
func (h *UserHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.POST("/logout", h.Logout)
	group.GET("/current", h.CurrentUser)
	group.GET("/search", h.SearchUsers)
	group.POST("/delete", h.DeleteUser)
	group.DELETE("/delete", h.DeleteUser)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindRequest(c, &req) {
		return
	}

	id, err := h.accounts.Register(c.Request.Context(), cqrs.RegisterCommand{
		AccountName:   req.UserAccount,
		Password:      req.UserPassword,
		CheckPassword: req.CheckPassword,
		PlanetCode:    string(req.PlanetCode),
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, id)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindRequest(c, &req) {
		return
	}

	view, err := h.accounts.Login(c.Request.Context(), cqrs.LoginCommand{
		AccountName: req.UserAccount,
		Password:    req.UserPassword,
	}, sessions.Default(c))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, view)
}

func (h *UserHandler) Logout(c *gin.Context) {
	n, err := h.accounts.Logout(c.Request.Context(), sessions.Default(c))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, n)
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	view, err := h.accounts.CurrentUser(c.Request.Context(), sessions.Default(c))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, view)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	views, err := h.accounts.ListUsers(c.Request.Context(), sessions.Default(c))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, views)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	// an unparsable id goes through as 0 so the admin gate still runs first
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		id = 0
	}

	n, err := h.accounts.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{UserID: id}, sessions.Default(c))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	middleware.RespondWithData(c, n)
}

// bindRequest decodes and validates the JSON body. It writes the error
// response itself and reports whether the handler should continue.
func bindRequest(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			middleware.RespondWithError(c, http.StatusBadRequest, service.KindNullInput.String(), "Request body is empty")
			return false
		}
		middleware.RespondWithError(c, http.StatusBadRequest, service.KindValidation.String(), "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func respondWithServiceError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, kind.String(), "Internal server error")
		return
	}
	middleware.RespondWithError(c, statusFor(kind), kind.String(), err.Error())
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNullInput, service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindAuthentication, service.KindNotAuthenticated:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
