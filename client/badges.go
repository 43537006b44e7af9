package client

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"gitlab.com/lfmsh/bank/models"
)

func badgePath(id uint) string {
	return "badges/" + strconv.FormatUint(uint64(id), 10)
}

// Badges lists active badges, or every badge with all set (superusers only).
func (c *Client) Badges(ctx context.Context, all bool) ([]models.BadgeData, error) {
	endpoint := "badges/"
	if all {
		endpoint = "badges/all"
	}
	var badges []models.BadgeData
	err := c.get(ctx, endpoint, nil, &badges)
	return badges, err
}

func (c *Client) Badge(ctx context.Context, id uint) (models.BadgeData, error) {
	var badge models.BadgeData
	err := c.get(ctx, badgePath(id), nil, &badge)
	return badge, err
}

func (c *Client) CreateBadge(ctx context.Context, badge models.BadgeCreate) (models.BadgeData, error) {
	var created models.BadgeData
	err := c.postJSON(ctx, "badges/", badge, &created)
	return created, err
}

func (c *Client) UpdateBadge(ctx context.Context, id uint, update models.BadgeUpdate) (models.BadgeData, error) {
	var badge models.BadgeData
	err := c.sendJSON(ctx, http.MethodPut, badgePath(id), update, &badge)
	return badge, err
}

func (c *Client) DeleteBadge(ctx context.Context, id uint) error {
	return c.do(ctx, request{method: http.MethodDelete, endpoint: badgePath(id)}, nil)
}

// AssignBadge hangs a badge on a user, replacing the one they wore.
func (c *Client) AssignBadge(ctx context.Context, badgeID, userID uint) (models.BadgeResult, error) {
	var result models.BadgeResult
	endpoint := badgePath(badgeID) + "/assign/" + strconv.FormatUint(uint64(userID), 10)
	err := c.do(ctx, request{method: http.MethodPatch, endpoint: endpoint}, &result)
	return result, err
}

func (c *Client) UnassignBadge(ctx context.Context, userID uint) (models.BadgeResult, error) {
	var result models.BadgeResult
	endpoint := "badges/unassign/" + strconv.FormatUint(uint64(userID), 10)
	err := c.do(ctx, request{method: http.MethodPatch, endpoint: endpoint}, &result)
	return result, err
}

func (c *Client) UploadBadgeImage(ctx context.Context, id uint, name string, r io.Reader) (models.BadgeResult, error) {
	var result models.BadgeResult
	err := c.upload(ctx, badgePath(id)+"/upload-image", "image", []File{{Name: name, Reader: r}}, &result)
	return result, err
}

func (c *Client) DeleteBadgeImage(ctx context.Context, id uint) (models.BadgeResult, error) {
	var result models.BadgeResult
	err := c.do(ctx, request{method: http.MethodDelete, endpoint: badgePath(id) + "/image"}, &result)
	return result, err
}

// BadgeImageURL builds the public address of a badge image. An empty size means small.
func (c *Client) BadgeImageURL(id uint, size string) string {
	if size == "" {
		size = AvatarSmall
	}
	name := strconv.FormatUint(uint64(id), 10)
	if size != AvatarOriginal {
		name += "_" + size
	}
	return c.resolve("/media/badges/"+name+".png", nil)
}
