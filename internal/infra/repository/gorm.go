package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
)

// Namespaces of pg_advisory_xact_lock(int4, int4).
const (
	lockNamespaceDate     int32 = 4201
	lockNamespaceInvoice  int32 = 4202
	lockNamespaceBirthday int32 = 4203
)

// GormRepository implements every persistence port on postgres.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound
	}
	return err
}

// dateParam é a data local (YYYY-MM-DD) usada nas colunas do tipo date.
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateLockKey(t time.Time) int32 {
	return int32(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

func monthLockKey(t time.Time) int32 {
	return int32(t.Year()*100 + int(t.Month()))
}

func (r *GormRepository) advisoryLock(ctx context.Context, namespace, key int32) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", namespace, key).
		Error
}

// rawPage runs a squirrel-built filter as COUNT + page query through gorm.
// Placeholders stay "?" so gorm rebinds them for postgres.
func rawPage[T any](
	ctx context.Context,
	db *gorm.DB,
	table string,
	where sq.And,
	orderBy []string,
	limit, offset int,
) ([]T, int64, error) {

	countSQL, countArgs, err := sq.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	q := sq.Select("*").From(table).Where(where).OrderBy(orderBy...)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	listSQL, listArgs, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows := []T{}
	if err := db.WithContext(ctx).Raw(listSQL, listArgs...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// Compile-time check
var _ domain.Repository = (*GormRepository)(nil)
