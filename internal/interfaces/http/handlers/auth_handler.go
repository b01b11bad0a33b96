package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/interfaces/http/middleware"
	"lumikid.backend/internal/interfaces/http/response"
	"lumikid.backend/internal/usecases"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase         *usecases.AuthUsecase
	verificationUsecase *usecases.VerificationUsecase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase *usecases.AuthUsecase, verificationUsecase *usecases.VerificationUsecase) *AuthHandler {
	return &AuthHandler{
		authUsecase:         authUsecase,
		verificationUsecase: verificationUsecase,
	}
}

// Register handles account registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	account, err := h.authUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			response.Error(c, domainerrors.Conflict("Email already registered"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Registration successful. Please check your email for the verification code.",
		"user": gin.H{
			"id":    account.ID,
			"email": account.Email,
		},
	})
}

// Login handles login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrNotFound):
			response.Error(c, domainerrors.NotFound("Email not registered"))
		case errors.Is(err, domainerrors.ErrInvalidCredentials):
			response.Error(c, domainerrors.NewAppError(http.StatusUnauthorized, "Invalid email or password", domainerrors.ErrInvalidCredentials))
		default:
			response.Error(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// VerifyCode handles email verification
// POST /api/v1/auth/verify_code
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var input entities.VerifyCodeInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.authUsecase.VerifyEmail(c.Request.Context(), input.Email, input.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Email verified successfully",
	})
}

// SendVerificationEmail re-issues the email verification code
// POST /api/v1/auth/send_verification_email
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	var input entities.EmailInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.verificationUsecase.SendVerificationEmail(c.Request.Context(), input.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Verification code sent",
	})
}

// SendResetCode issues a password reset code
// POST /api/v1/auth/send_reset_code
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var input entities.EmailInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.verificationUsecase.SendResetCode(c.Request.Context(), input.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Reset code sent",
	})
}

// VerifyResetCode checks a password reset code
// POST /api/v1/auth/verify_reset_code
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var input entities.VerifyCodeInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.authUsecase.VerifyResetCode(c.Request.Context(), input.Email, input.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Reset code verified",
	})
}

// ResetPassword sets a new password after code verification
// POST /api/v1/auth/reset_password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), input.Email, input.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Password reset successfully",
	})
}

// Refresh trades a valid token for a fresh one
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.authUsecase.Refresh(c.Request.Context(), input.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// DeleteAccount soft-deletes the authenticated account
// POST /api/v1/auth/delete_account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.authUsecase.Delete(c.Request.Context(), accountID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Account deleted",
	})
}

// GetMe returns the authenticated account's profile
// GET /api/v1/auth/get_me
func (h *AuthHandler) GetMe(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	account, err := h.authUsecase.GetMe(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, account)
}

// UpdateProfile applies profile changes
// POST /api/v1/auth/update_profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	var input entities.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	account, err := h.authUsecase.UpdateProfile(c.Request.Context(), accountID, &input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			response.Error(c, domainerrors.Conflict("Email already in use"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, account)
}
