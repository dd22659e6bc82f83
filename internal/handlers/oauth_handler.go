package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"stockfolio/internal/config"
	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/services"
)

const (
	oauthStateCookie  = "oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthHandler implements the Google login flow. The OAuth handshake itself
// is delegated to the oauth2 package; on success the user is upserted by
// Google profile and receives the same JWT pair as password login.
type OAuthHandler struct {
	userService services.UserServicer
	oauthConfig *oauth2.Config
	authHandler *AuthHandler
}

// NewOAuthHandler creates a new OAuthHandler from the application config.
func NewOAuthHandler(cfg *config.Config, userService services.UserServicer) *OAuthHandler {
	return &OAuthHandler{
		userService: userService,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		authHandler: NewAuthHandler(userService),
	}
}

// googleProfile is the subset of the Google userinfo payload we read.
type googleProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	LastName  string `json:"family_name"`
}

// GoogleLogin redirects the browser to Google's consent screen.
// @Summary     Start Google login
// @Description Redirect to Google's OAuth consent screen
// @Tags        auth
// @Success     307 "Redirect to Google"
// @Router      /auth/google [get]
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.New().String()
	c.SetCookie(oauthStateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state))
}

// GoogleCallback completes the OAuth flow: it verifies the state cookie,
// exchanges the code for a token, reads the Google profile, and issues a
// JWT pair for the matched-or-created user.
// @Summary     Google login callback
// @Description Complete the Google OAuth flow and issue tokens
// @Tags        auth
// @Produce     json
// @Param       state query string true "OAuth state"
// @Param       code  query string true "Authorization code"
// @Success     200 {object} AuthResponse "User authenticated and tokens generated"
// @Failure     401 {object} ErrorResponse "OAuth exchange failed"
// @Router      /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie == "" || c.Query("state") != stateCookie {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "OAuth state mismatch"))
		return
	}

	code := c.Query("code")
	if code == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Missing authorization code"))
		return
	}

	token, err := h.oauthConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUnauthorized, err))
		return
	}

	profile, err := h.fetchProfile(c, token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetOrCreateGoogleUser(profile.ID, profile.Email, profile.GivenName, profile.LastName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accessToken, refreshToken, err := h.authHandler.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(accessToken, refreshToken, user))
}

// fetchProfile reads the Google userinfo endpoint with the exchanged token.
func (h *OAuthHandler) fetchProfile(c *gin.Context, token *oauth2.Token) (*googleProfile, error) {
	client := h.oauthConfig.Client(c.Request.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Failed to read Google profile")
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if profile.Email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Google profile has no email")
	}

	return &profile, nil
}
