package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"gitlab.com/lfmsh/bank/models"
)

// Avatar sizes served by the media endpoint.
const (
	AvatarOriginal = "original"
	AvatarSmall    = "small"
	AvatarMedium   = "medium"
	AvatarLarge    = "large"
)

// AvatarSizes lists every size a URL can be built for.
var AvatarSizes = []string{AvatarOriginal, AvatarSmall, AvatarMedium, AvatarLarge}

// File is one part of a multipart upload.
type File struct {
	Name   string
	Reader io.Reader
}

// AvatarURL builds the public address of a user's avatar. An empty size means medium.
func (c *Client) AvatarURL(username, size string) string {
	if size == "" {
		size = AvatarMedium
	}
	name := username
	if size != AvatarOriginal {
		name += "_" + size
	}
	return c.resolve("/media/avatars/"+url.PathEscape(name)+".png", nil)
}

// multipartRequest reads every file into memory once so a retry after a token
// refresh sends exactly the same body.
func multipartRequest(endpoint, field string, files []File) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return request{}, fmt.Errorf("unable to add %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return request{}, fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return request{}, err
	}
	return request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}, nil
}

func (c *Client) upload(ctx context.Context, endpoint, field string, files []File, out interface{}) error {
	req, err := multipartRequest(endpoint, field, files)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// UploadAvatar replaces the avatar of username, normally the current user.
func (c *Client) UploadAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error) {
	var user models.UserData
	err := c.upload(ctx, "users/"+url.PathEscape(username)+"/avatar", "file", []File{{Name: name, Reader: r}}, &user)
	return user, err
}

func (c *Client) DeleteAvatar(ctx context.Context, username string) (models.UserData, error) {
	var user models.UserData
	err := c.do(ctx, request{method: http.MethodDelete, endpoint: "users/" + url.PathEscape(username) + "/avatar"}, &user)
	return user, err
}

// AdminSetAvatar sets the avatar of any user. Staff only.
func (c *Client) AdminSetAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error) {
	var user models.UserData
	err := c.upload(ctx, "users/admin/set-avatar/"+url.PathEscape(username), "file", []File{{Name: name, Reader: r}}, &user)
	return user, err
}

// ImportUsersFromImages creates pioneers from photos named Last_First[_Middle]_party_grade.ext.
func (c *Client) ImportUsersFromImages(ctx context.Context, files []File) (models.ImportResult, error) {
	var result models.ImportResult
	if len(files) == 0 {
		return result, fmt.Errorf("no files to import")
	}
	err := c.upload(ctx, "users/import-images", "files", files, &result)
	return result, err
}

func (c *Client) ImportUsersCSV(ctx context.Context, name string, r io.Reader) (models.ImportResult, error) {
	var result models.ImportResult
	err := c.upload(ctx, "users/import-csv", "file", []File{{Name: name, Reader: r}}, &result)
	return result, err
}
