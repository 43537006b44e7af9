package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/models"
)

// HandleLogin exchanges form credentials for a token pair.
func (h *Handler) HandleLogin(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	if username == "" || password == "" {
		abortWithProblem(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.ledger.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// HandleRefresh issues a new access token for a valid refresh token.
func (h *Handler) HandleRefresh(c *gin.Context) {
	refresh := c.PostForm("refresh_token")
	if refresh == "" {
		abortWithProblem(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	id, err := h.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		abortWithProblem(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if _, err := h.ledger.ActiveUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrInactiveUser) {
			abortWithProblem(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		abortWithError(c, err)
		return
	}

	access, err := h.tokens.IssueAccess(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TokenPair{AccessToken: access, TokenType: auth.TokenTypeBearer})
}

// HandleVerify reports whether the token query parameter is a valid access token.
func (h *Handler) HandleVerify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		abortWithProblem(c, http.StatusBadRequest, "token is required")
		return
	}
	if _, err := h.tokens.Parse(token, auth.AccessToken); err != nil {
		abortWithProblem(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	c.JSON(http.StatusOK, models.TokenVerification{Valid: true})
}

func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthStatus{Status: "ok"})
}
