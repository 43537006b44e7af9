package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/models"
)

func (h *Handler) listBadges(c *gin.Context, all bool) {
	badges, err := h.ledger.Badges(c.Request.Context(), currentUser(c), all)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

// HandleListBadges lists active badges.
func (h *Handler) HandleListBadges(c *gin.Context) {
	h.listBadges(c, false)
}

// HandleListAllBadges lists inactive badges too. Superusers only.
func (h *Handler) HandleListAllBadges(c *gin.Context) {
	h.listBadges(c, true)
}

func (h *Handler) HandleGetBadge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	badge, err := h.ledger.Badge(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, badge)
}

func (h *Handler) HandleCreateBadge(c *gin.Context) {
	var payload models.BadgeCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	badge, err := h.ledger.CreateBadge(c.Request.Context(), currentUser(c), payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, badge)
}

func (h *Handler) HandleUpdateBadge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload models.BadgeUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	badge, err := h.ledger.UpdateBadge(c.Request.Context(), currentUser(c), id, payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, badge)
}

func (h *Handler) HandleDeleteBadge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteBadge(c.Request.Context(), currentUser(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) HandleAssignBadge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	result, err := h.ledger.AssignBadge(c.Request.Context(), currentUser(c), id, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleUnassignBadge(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	result, err := h.ledger.UnassignBadge(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleUploadBadgeImage stores the multipart field image as the badge picture.
func (h *Handler) HandleUploadBadgeImage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "image")
	if !ok {
		return
	}
	result, err := h.ledger.SetBadgeImage(c.Request.Context(), currentUser(c), id, file.Data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleDeleteBadgeImage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	result, err := h.ledger.DeleteBadgeImage(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
