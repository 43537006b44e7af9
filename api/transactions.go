package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/models"
)

// idParam parses the :id path segment, answering 400 when it is not a number.
func idParam(c *gin.Context) (uint, bool) {
	return pathID(c, "id")
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		abortWithProblem(c, http.StatusBadRequest, "invalid "+name+" "+strconv.Quote(c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// HandleListTransactions lists visible transactions, optionally filtered by
// ?status= and ?type=.
func (h *Handler) HandleListTransactions(c *gin.Context) {
	filter := ledger.TransactionFilter{
		Status: models.TransactionState(c.Query("status")),
		Type:   models.TransactionType(c.Query("type")),
	}
	txs, err := h.ledger.Transactions(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) HandleGetTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.ledger.Transaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) HandleCreateTransaction(c *gin.Context) {
	var payload models.TransactionCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	tx, err := h.ledger.CreateTransaction(c.Request.Context(), currentUser(c), payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) HandleProcessTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.ledger.ProcessTransaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) HandleDeclineTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.ledger.DeclineTransaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
