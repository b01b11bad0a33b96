package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/interfaces/http/response"
	"lumikid.backend/internal/usecases"
)

// OAuthHandler drives the Google sign-in flow
type OAuthHandler struct {
	authUsecase *usecases.AuthUsecase
	begin       func(http.ResponseWriter, *http.Request)
	complete    func(http.ResponseWriter, *http.Request) (goth.User, error)
}

// NewOAuthHandler creates a new oauth handler
func NewOAuthHandler(authUsecase *usecases.AuthUsecase) *OAuthHandler {
	return &OAuthHandler{
		authUsecase: authUsecase,
		begin:       gothic.BeginAuthHandler,
		complete:    gothic.CompleteUserAuth,
	}
}

// GoogleLogin redirects the client to Google's consent screen
// GET /api/v1/auth/google/login
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	withProvider(c, "google")
	h.begin(c.Writer, c.Request)
}

// GoogleCallback exchanges the authorization code, upserts the account and
// issues a session token
// GET /api/v1/auth/google/callback
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	withProvider(c, "google")

	user, err := h.complete(c.Writer, c.Request)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("OAuth exchange failed"))
		return
	}

	result, err := h.authUsecase.LoginWithGoogle(c.Request.Context(), &entities.GoogleProfile{
		Email:      user.Email,
		Name:       user.Name,
		PictureURL: user.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidInput) {
			response.Error(c, domainerrors.BadRequest("Provider returned no email"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// gothic resolves the provider from the request query
func withProvider(c *gin.Context, provider string) {
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
}
