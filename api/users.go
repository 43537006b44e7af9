package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"gitlab.com/lfmsh/bank/ledger"
	"gitlab.com/lfmsh/bank/models"
)

const maxUploadBytes = 10 << 20

func (h *Handler) HandleListUsers(c *gin.Context) {
	users, err := h.ledger.Users(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) HandleMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.UserData(c.Request.Context(), currentUser(c)))
}

func (h *Handler) HandleGetUser(c *gin.Context) {
	user, err := h.ledger.Profile(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) HandleCreateUser(c *gin.Context) {
	var payload models.UserCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	user, err := h.ledger.CreateUser(c.Request.Context(), currentUser(c), payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// HandleUpdateUser changes an account. Superusers only.
func (h *Handler) HandleUpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload models.UserUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationProblem(err))
		return
	}
	user, err := h.ledger.UpdateUser(c.Request.Context(), currentUser(c), id, payload)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// formFile reads one uploaded file of field.
func formFile(c *gin.Context, field string) (ledger.UploadedFile, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		abortWithProblem(c, http.StatusBadRequest, "multipart field "+field+" is required")
		return ledger.UploadedFile{}, false
	}
	file, err := readUpload(header)
	if err != nil {
		abortWithProblem(c, http.StatusBadRequest, err.Error())
		return ledger.UploadedFile{}, false
	}
	return file, true
}

func readUpload(header *multipart.FileHeader) (ledger.UploadedFile, error) {
	f, err := header.Open()
	if err != nil {
		return ledger.UploadedFile{}, fmt.Errorf("unable to open %s: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return ledger.UploadedFile{}, fmt.Errorf("unable to read %s: %w", header.Filename, err)
	}
	if len(data) > maxUploadBytes {
		return ledger.UploadedFile{}, fmt.Errorf("%s is larger than %s", header.Filename, humanize.IBytes(maxUploadBytes))
	}
	return ledger.UploadedFile{Name: header.Filename, Data: data}, nil
}

func (h *Handler) setAvatar(c *gin.Context) {
	file, ok := formFile(c, "file")
	if !ok {
		return
	}
	user, err := h.ledger.SetAvatar(c.Request.Context(), currentUser(c), c.Param("username"), file.Data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleUploadAvatar replaces the caller's avatar, or anyone's for staff.
func (h *Handler) HandleUploadAvatar(c *gin.Context) {
	h.setAvatar(c)
}

// HandleAdminSetAvatar is the staff route for setting any avatar.
func (h *Handler) HandleAdminSetAvatar(c *gin.Context) {
	if !currentUser(c).Privileged() {
		abortWithError(c, ledger.ErrForbidden)
		return
	}
	h.setAvatar(c)
}

func (h *Handler) HandleDeleteAvatar(c *gin.Context) {
	user, err := h.ledger.DeleteAvatar(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) HandleImportImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		abortWithProblem(c, http.StatusBadRequest, "multipart field files is required")
		return
	}

	files := make([]ledger.UploadedFile, 0, len(form.File["files"]))
	for _, header := range form.File["files"] {
		file, err := readUpload(header)
		if err != nil {
			abortWithProblem(c, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, file)
	}

	result, err := h.ledger.ImportFromImages(c.Request.Context(), currentUser(c), files)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleImportCSV(c *gin.Context) {
	file, ok := formFile(c, "file")
	if !ok {
		return
	}
	result, err := h.ledger.ImportFromCSV(c.Request.Context(), currentUser(c), bytes.NewReader(file.Data))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
