package expense

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Categories interface {
	repository.Repository[*Category]

	GetByNameForOwner(ctx context.Context, ownerID uuid.UUID, name string) (*Category, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error)
	Create(ctx context.Context, record *Category, criteria ...repository.InsertCriteria) (*Category, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Category, criteria ...repository.InsertCriteria) (*Category, error)
}

type categories struct {
	repository.Repository[*Category]
	db *bun.DB
}

var (
	_ Categories                       = (*categories)(nil)
	_ repository.Repository[*Category] = (*categories)(nil)
)

func NewCategoriesRepository(db *bun.DB) Categories {
	repo := repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(c *Category) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Category, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &categories{
		Repository: repo,
		db:         db,
	}
}

func (a *categories) GetByNameForOwner(ctx context.Context, ownerID uuid.UUID, name string) (*Category, error) {
	record := &Category{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", ownerID).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"name":    name,
					"user_id": ownerID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *categories) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error) {
	var records []*Category
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", ownerID).
		Order("name ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *categories) Create(ctx context.Context, record *Category, criteria ...repository.InsertCriteria) (*Category, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *categories) CreateTx(ctx context.Context, tx bun.IDB, record *Category, criteria ...repository.InsertCriteria) (*Category, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}
