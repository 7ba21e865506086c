package repository

import (
	"context"
	"strings"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// --------------------------------------------------
// Services
// --------------------------------------------------

func (r *GormRepository) ListServices(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormRepository) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepository) CreateService(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormRepository) UpdateService(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (r *GormRepository) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepository) FindClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepository) FindClientByReferralCode(ctx context.Context, code string) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("referral_code = ?", strings.ToUpper(code)).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepository) CreateClient(ctx context.Context, c *models.Client) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.ErrBusiness(httperr.CodeClientAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *GormRepository) ListClients(ctx context.Context, query string) ([]models.Client, error) {
	q := r.db.WithContext(ctx)

	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	clients := []models.Client{}
	if err := q.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *GormRepository) ListClientsWithBirthday(
	ctx context.Context,
	month time.Month,
	day int,
) ([]models.Client, error) {

	clients := []models.Client{}
	if err := r.db.WithContext(ctx).
		Where(
			"birthday IS NOT NULL AND EXTRACT(MONTH FROM birthday) = ? AND EXTRACT(DAY FROM birthday) = ?",
			int(month), day,
		).
		Order("id ASC").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
