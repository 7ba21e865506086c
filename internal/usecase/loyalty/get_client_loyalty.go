package loyalty

import (
	"context"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const (
	recentHistoryLimit = 20
	defaultHistoryPage = 50
	maxHistoryPage     = 200
)

type ClientLoyalty struct {
	Client    models.Client           `json:"client"`
	Profile   models.LoyaltyProfile   `json:"profile"`
	Discounts []models.Discount       `json:"discounts"`
	History   []models.LoyaltyHistory `json:"history"`
}

type GetClientLoyalty struct {
	repo domain.Repository
}

func NewGetClientLoyalty(repo domain.Repository) *GetClientLoyalty {
	return &GetClientLoyalty{repo: repo}
}

func (uc *GetClientLoyalty) Execute(ctx context.Context, clientID uint) (*ClientLoyalty, error) {
	client, err := uc.repo.GetClient(ctx, clientID)
	if err != nil {
		if httperr.IsNotFound(err) {
			return nil, httperr.ErrBusiness(httperr.CodeClientNotFound)
		}
		return nil, err
	}

	var profile *models.LoyaltyProfile
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		profile, err = loyalty.LoadProfile(ctx, tx, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}

	discounts, err := uc.repo.ListDiscounts(ctx, clientID)
	if err != nil {
		return nil, err
	}

	history, _, err := uc.repo.ListHistory(ctx, loyalty.HistoryFilter{
		ClientID: clientID,
		Limit:    recentHistoryLimit,
	})
	if err != nil {
		return nil, err
	}

	return &ClientLoyalty{
		Client:    *client,
		Profile:   *profile,
		Discounts: discounts,
		History:   history,
	}, nil
}

// ListHistory pages the ledger with the given filters.
type ListHistory struct {
	repo domain.Repository
}

func NewListHistory(repo domain.Repository) *ListHistory {
	return &ListHistory{repo: repo}
}

func (uc *ListHistory) Execute(
	ctx context.Context,
	f loyalty.HistoryFilter,
) ([]models.LoyaltyHistory, int64, error) {

	if f.Limit <= 0 {
		f.Limit = defaultHistoryPage
	}
	if f.Limit > maxHistoryPage {
		f.Limit = maxHistoryPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	return uc.repo.ListHistory(ctx, f)
}
