package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/interfaces/http/response"
	"lumikid.backend/internal/usecases"
)

// ParentalHandler handles parental control password endpoints
type ParentalHandler struct {
	parentalUsecase     *usecases.ParentalUsecase
	verificationUsecase *usecases.VerificationUsecase
}

// NewParentalHandler creates a new parental password handler
func NewParentalHandler(parentalUsecase *usecases.ParentalUsecase, verificationUsecase *usecases.VerificationUsecase) *ParentalHandler {
	return &ParentalHandler{
		parentalUsecase:     parentalUsecase,
		verificationUsecase: verificationUsecase,
	}
}

// SetParentPassword stores the parental password for the first time
// POST /api/v1/auth/set_parent_password
func (h *ParentalHandler) SetParentPassword(c *gin.Context) {
	var input entities.ParentPasswordInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.parentalUsecase.Set(c.Request.Context(), &input); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			response.Error(c, domainerrors.Conflict("Parent password already set"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Parent password set",
	})
}

// CheckParentPassword reports whether the submitted parental password matches
// POST /api/v1/auth/check_parent_password
func (h *ParentalHandler) CheckParentPassword(c *gin.Context) {
	var input entities.ParentPasswordInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	correct, err := h.parentalUsecase.Check(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"correct": correct,
	})
}

// SendParentPasswordCode issues a code for changing the parental password
// POST /api/v1/auth/send_parent_password_code
func (h *ParentalHandler) SendParentPasswordCode(c *gin.Context) {
	var input entities.EmailInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.verificationUsecase.SendParentPasswordCode(c.Request.Context(), input.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Parent password code sent",
	})
}

// ChangeParentPassword replaces the parental password after a code check
// POST /api/v1/auth/change_parent_password
func (h *ParentalHandler) ChangeParentPassword(c *gin.Context) {
	var input entities.ParentPasswordChange

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.parentalUsecase.Change(c.Request.Context(), &input); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Parent password changed",
	})
}
