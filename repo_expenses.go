package expense

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Expenses interface {
	repository.Repository[*Expense]

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Expense, error)
	ListByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) ([]*Expense, error)
	Create(ctx context.Context, record *Expense, criteria ...repository.InsertCriteria) (*Expense, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Expense, criteria ...repository.InsertCriteria) (*Expense, error)
}

type expenses struct {
	repository.Repository[*Expense]
	db *bun.DB
}

var (
	_ Expenses                        = (*expenses)(nil)
	_ repository.Repository[*Expense] = (*expenses)(nil)
)

func NewExpensesRepository(db *bun.DB) Expenses {
	repo := repository.NewRepository[*Expense](db, repository.ModelHandlers[*Expense]{
		NewRecord: func() *Expense { return &Expense{} },
		GetID: func(e *Expense) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Expense, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &expenses{
		Repository: repo,
		db:         db,
	}
}

func (a *expenses) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Expense, error) {
	var records []*Expense
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.creator_id = ?", ownerID).
		Order("date DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *expenses) ListByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) ([]*Expense, error) {
	var records []*Expense
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.creator_id = ?", ownerID).
		Where("?TableAlias.category_id = ?", categoryID).
		Order("date DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *expenses) Create(ctx context.Context, record *Expense, criteria ...repository.InsertCriteria) (*Expense, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *expenses) CreateTx(ctx context.Context, tx bun.IDB, record *Expense, criteria ...repository.InsertCriteria) (*Expense, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}
