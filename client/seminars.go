package client

import (
	"context"
	"fmt"
	"strconv"

	"gitlab.com/lfmsh/bank/models"
)

// CreateSeminar records a talk. The evaluation is checked locally first so an
// out of range mark never reaches the server.
func (c *Client) CreateSeminar(ctx context.Context, seminar models.SeminarCreate) (models.SeminarCreated, error) {
	var created models.SeminarCreated
	if err := seminar.Evaluation.Validate(); err != nil {
		return created, fmt.Errorf("invalid evaluation: %w", err)
	}
	if total := seminar.Evaluation.Total(); seminar.TotalScore != total {
		return created, fmt.Errorf("total score %d does not match evaluation sum %d", seminar.TotalScore, total)
	}
	err := c.postJSON(ctx, "transactions/seminar/", seminar, &created)
	return created, err
}

func (c *Client) Seminars(ctx context.Context) ([]models.Seminar, error) {
	var seminars []models.Seminar
	err := c.get(ctx, "seminars/", nil, &seminars)
	return seminars, err
}

func (c *Client) Seminar(ctx context.Context, id uint) (models.Seminar, error) {
	var seminar models.Seminar
	err := c.get(ctx, "seminars/"+strconv.FormatUint(uint64(id), 10)+"/", nil, &seminar)
	return seminar, err
}
