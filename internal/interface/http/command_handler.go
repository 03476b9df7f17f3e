package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/auctionlabs/command-server/internal/application"
	"github.com/auctionlabs/command-server/internal/domain/command"
	"github.com/auctionlabs/command-server/pkg/response"
	"github.com/auctionlabs/command-server/pkg/validation"
)

// CommandHandler exposes the three user commands over JSON. It binds the
// wire payload, invokes the dispatcher and maps result kinds to HTTP status
// codes; it performs no business logic and no retries.
type CommandHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewCommandHandler(svc *application.Service, logger *logrus.Logger) *CommandHandler {
	return &CommandHandler{Svc: svc, Logger: logger}
}

type registerUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
	Email    string `json:"email" binding:"required,email"`
}

type changePasswordRequest struct {
	AggregateID string `json:"aggregate_id" binding:"required,uuid"`
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type verifyEmailRequest struct {
	AggregateID   string `json:"aggregate_id" binding:"required,uuid"`
	SecurityToken string `json:"security_token" binding:"required"`
}

// RegisterUser POST /api/commands/register-user
func (h *CommandHandler) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res := h.Svc.RegisterUser(c.Request.Context(), command.RegisterUser{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if !res.Success() {
		h.writeFailure(c, res)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"aggregate_id": res.AggregateID}, "user registered")
}

// ChangePassword POST /api/commands/change-password
func (h *CommandHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res := h.Svc.ChangePassword(c.Request.Context(), command.ChangePassword{
		AggregateID: req.AggregateID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if !res.Success() {
		h.writeFailure(c, res)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password changed")
}

// VerifyEmail POST /api/commands/verify-email
func (h *CommandHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res := h.Svc.VerifyEmail(c.Request.Context(), command.VerifyEmail{
		AggregateID:   req.AggregateID,
		SecurityToken: req.SecurityToken,
	})
	if !res.Success() {
		h.writeFailure(c, res)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "email verified")
}

func (h *CommandHandler) writeFailure(c *gin.Context, res command.Result) {
	response.Error[any](c, statusFor(res.Kind), messageFor(res.Kind), gin.H{"kind": res.Kind})
}

func statusFor(kind command.Kind) int {
	switch kind {
	case command.KindInvalidCommand:
		return http.StatusBadRequest
	case command.KindUsernameExists, command.KindEmailExists, command.KindUsernameEmailComboExists,
		command.KindIllegalStateTransition, command.KindConcurrencyConflict:
		return http.StatusConflict
	case command.KindIDNotFound:
		return http.StatusNotFound
	case command.KindPasswordMismatch, command.KindEmailVerificationFailed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the user-facing text for a failure kind. Internal
// diagnostics from the dispatcher are never echoed to the client.
func messageFor(kind command.Kind) string {
	switch kind {
	case command.KindInvalidCommand:
		return "command is invalid"
	case command.KindUsernameExists:
		return "username is already taken"
	case command.KindEmailExists:
		return "email is already registered"
	case command.KindUsernameEmailComboExists:
		return "username and email are already registered"
	case command.KindIDNotFound:
		return "user not found"
	case command.KindPasswordMismatch:
		return "old password does not match"
	case command.KindEmailVerificationFailed:
		return "verification failed"
	case command.KindIllegalStateTransition:
		return "operation not allowed in the current state"
	case command.KindConcurrencyConflict:
		return "conflicting update, please retry"
	default:
		return "internal error"
	}
}
