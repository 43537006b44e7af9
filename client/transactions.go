package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.com/lfmsh/bank/models"
)

// TransactionFilter narrows a transaction listing. Zero values match everything.
type TransactionFilter struct {
	Status models.TransactionState
	Type   models.TransactionType
}

func (f TransactionFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	return q
}

func (c *Client) Transactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := c.get(ctx, "transactions/", filter.query(), &txs)
	return txs, err
}

func (c *Client) Transaction(ctx context.Context, id uint) (models.Transaction, error) {
	var tx models.Transaction
	err := c.get(ctx, "transactions/"+strconv.FormatUint(uint64(id), 10), nil, &tx)
	return tx, err
}

func (c *Client) CreateTransaction(ctx context.Context, create models.TransactionCreate) (models.Transaction, error) {
	var tx models.Transaction
	err := c.postJSON(ctx, "transactions/create/", create, &tx)
	return tx, err
}

func (c *Client) ProcessTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	return c.transition(ctx, id, "process")
}

func (c *Client) DeclineTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	return c.transition(ctx, id, "decline")
}

func (c *Client) transition(ctx context.Context, id uint, action string) (models.Transaction, error) {
	var tx models.Transaction
	endpoint := "transactions/" + strconv.FormatUint(uint64(id), 10) + "/" + action
	err := c.do(ctx, request{method: http.MethodPost, endpoint: endpoint}, &tx)
	return tx, err
}
