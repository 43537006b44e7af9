package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/models"
)

func (h *Handler) HandleCreateSeminar(c *gin.Context) {
	var payload models.SeminarCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	created, err := h.ledger.CreateSeminar(c.Request.Context(), currentUser(c), payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) HandleListSeminars(c *gin.Context) {
	seminars, err := h.ledger.Seminars(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, seminars)
}

func (h *Handler) HandleGetSeminar(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	seminar, err := h.ledger.Seminar(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, seminar)
}
