package appointment

import (
	"context"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type BookPublicInput struct {
	ClientName  string
	ClientPhone string
	ClientEmail string

	Date        time.Time
	StartMinute int
	Services    []ServiceSelection
	Notes       string
}

// BookPublic is the self-service booking: the client is found by phone or
// created, then the slot goes through CheckAndReserve.
type BookPublic struct {
	repo    domain.Repository
	reserve *CheckAndReserve
}

func NewBookPublic(repo domain.Repository, reserve *CheckAndReserve) *BookPublic {
	return &BookPublic{repo: repo, reserve: reserve}
}

func (uc *BookPublic) Execute(ctx context.Context, in BookPublicInput) (*ReserveResult, error) {

	// --------------------------------------------------
	// 1️⃣ Cliente (get or create)
	// --------------------------------------------------
	client, err := uc.findOrCreateClient(ctx, in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2️⃣ Reserva
	// --------------------------------------------------
	return uc.reserve.Execute(ctx, ReserveInput{
		ClientID:    client.ID,
		Date:        in.Date,
		StartMinute: in.StartMinute,
		Services:    in.Services,
		Notes:       in.Notes,
	})
}

func (uc *BookPublic) findOrCreateClient(ctx context.Context, in BookPublicInput) (*models.Client, error) {
	phone := strings.TrimSpace(in.ClientPhone)

	client, err := uc.repo.FindClientByPhone(ctx, phone)
	if err == nil {
		return client, nil
	}
	if !httperr.IsNotFound(err) {
		return nil, err
	}

	client = &models.Client{
		Name:         strings.TrimSpace(in.ClientName),
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(in.ClientEmail)),
		ReferralCode: loyalty.NewReferralCode(),
	}
	if err := uc.repo.CreateClient(ctx, client); err != nil {
		// criado em paralelo pelo mesmo telefone
		if httperr.IsBusiness(err, httperr.CodeClientAlreadyExists) {
			return uc.repo.FindClientByPhone(ctx, phone)
		}
		return nil, err
	}
	return client, nil
}
