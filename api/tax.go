package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/models"
)

func (h *Handler) HandleStatistics(c *gin.Context) {
	stats, err := h.ledger.Statistics(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type chargeFunc func(ctx context.Context, actor models.User) (models.TaxResult, error)

func charge(c *gin.Context, fn chargeFunc) {
	result, err := fn(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleDailyTax charges DailyTaxAmount from every active pioneer. Superusers only.
func (h *Handler) HandleDailyTax(c *gin.Context) {
	charge(c, h.ledger.ChargeDailyTax)
}

func (h *Handler) HandleEquatorFine(c *gin.Context) {
	charge(c, h.ledger.ChargeEquatorFine)
}

func (h *Handler) HandleFinalFine(c *gin.Context) {
	charge(c, h.ledger.ChargeFinalFine)
}
