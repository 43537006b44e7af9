package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/models"
)

const currentUserKey = "currentUser"

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zlog.Ctx(c.Request.Context()).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()))
	}
}

// authRequired accepts a bearer access token and loads its user.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortWithProblem(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		id, err := h.tokens.Parse(token, auth.AccessToken)
		if err != nil {
			abortWithProblem(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		user, err := h.ledger.ActiveUser(c.Request.Context(), id)
		if errors.Is(err, ledger.ErrNotFound) {
			abortWithProblem(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet(currentUserKey).(models.User)
}
