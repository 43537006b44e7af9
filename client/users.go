package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.com/lfmsh/bank/models"
)

func (c *Client) Me(ctx context.Context) (models.UserData, error) {
	var user models.UserData
	err := c.get(ctx, "users/me/", nil, &user)
	return user, err
}

// Users lists the accounts visible to the current user.
func (c *Client) Users(ctx context.Context) ([]models.UserListItem, error) {
	var users []models.UserListItem
	err := c.get(ctx, "users/", nil, &users)
	return users, err
}

func (c *Client) User(ctx context.Context, username string) (models.UserData, error) {
	var user models.UserData
	err := c.get(ctx, "users/"+url.PathEscape(username)+"/", nil, &user)
	return user, err
}

func (c *Client) Statistics(ctx context.Context) (models.Statistics, error) {
	var stats models.Statistics
	err := c.get(ctx, "statistics/", nil, &stats)
	return stats, err
}

// CreateUser adds an account. Superusers only.
func (c *Client) CreateUser(ctx context.Context, user models.UserCreate) (models.UserData, error) {
	var created models.UserData
	err := c.postJSON(ctx, "users/", user, &created)
	return created, err
}

// UpdateUser changes the given fields of an account. Superusers only.
func (c *Client) UpdateUser(ctx context.Context, id uint, update models.UserUpdate) (models.UserData, error) {
	var user models.UserData
	err := c.sendJSON(ctx, http.MethodPut, "users/"+strconv.FormatUint(uint64(id), 10), update, &user)
	return user, err
}

// ChargeTax books the daily tax for every active pioneer.
func (c *Client) ChargeTax(ctx context.Context) (models.TaxResult, error) {
	return c.charge(ctx, "tax/tax")
}

// ChargeEquatorFine fines pioneers behind the mid-session study plan.
func (c *Client) ChargeEquatorFine(ctx context.Context) (models.TaxResult, error) {
	return c.charge(ctx, "tax/equatorial_fine")
}

// ChargeFinalFine fines pioneers for the study plan left undone.
func (c *Client) ChargeFinalFine(ctx context.Context) (models.TaxResult, error) {
	return c.charge(ctx, "tax/final_fine")
}

func (c *Client) charge(ctx context.Context, endpoint string) (models.TaxResult, error) {
	var result models.TaxResult
	err := c.do(ctx, request{method: http.MethodPost, endpoint: endpoint}, &result)
	return result, err
}

// Health checks the server without credentials.
func (c *Client) Health(ctx context.Context) (models.HealthStatus, error) {
	var health models.HealthStatus
	req := request{method: http.MethodGet, endpoint: "/health"}
	status, data, err := c.send(ctx, req, "", 1)
	if err != nil {
		return health, err
	}
	if status != http.StatusOK {
		return health, newAPIError(req.method, req.endpoint, status, data)
	}
	err = decode(data, &health)
	return health, err
}
