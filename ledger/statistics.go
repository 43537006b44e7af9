package ledger

import (
	"context"
	"math"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

func activePioneers(ctx context.Context, users repositories.UserRepository) ([]models.User, error) {
	query := users.GetQuery()
	query.Conditions = append(query.Conditions,
		repositories.EQ("IsActive", true),
		repositories.EQ("Staff", false),
		repositories.EQ("Superuser", false))
	query.SortBy = "id"
	return users.FindAll(ctx, query)
}

// Statistics sums balances of active pioneers. Staff only.
func (s *Service) Statistics(ctx context.Context, viewer models.User) (models.Statistics, error) {
	if !viewer.Privileged() {
		return models.Statistics{}, ErrForbidden
	}
	pioneers, err := activePioneers(ctx, s.store.Users())
	if err != nil {
		return models.Statistics{}, err
	}
	if len(pioneers) == 0 {
		return models.Statistics{}, nil
	}

	var total float64
	for _, p := range pioneers {
		total += p.Balance
	}
	return models.Statistics{
		AvgBalance:   round2(total / float64(len(pioneers))),
		TotalBalance: round2(total),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
