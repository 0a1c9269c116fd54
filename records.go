package expense

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type CreateCategoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate will run validation rules
func (p CreateCategoryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Description, validation.Length(0, 500)),
	)
}

type CreateExpensePayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	CategoryID  string    `json:"category_id"`
}

// Validate will run validation rules
func (p CreateExpensePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 500)),
		validation.Field(&p.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&p.Date, validation.Required),
		validation.Field(&p.CategoryID, validation.Required, is.UUID),
	)
}

// Records is the identity-scoped record keeping service. Every method
// takes the request identity explicitly, anonymous callers are rejected
// and all reads and writes are confined to the caller's own records.
type Records struct {
	repo     RepositoryManager
	resolver *Resolver
	logger   Logger
}

func NewRecords(repo RepositoryManager) *Records {
	return &Records{
		repo:     repo,
		resolver: NewResolver(repo),
		logger:   defLogger{},
	}
}

func (s *Records) WithLogger(logger Logger) *Records {
	if logger != nil {
		s.logger = logger
		s.resolver = s.resolver.WithLogger(logger)
	}
	return s
}

// Resolver exposes the lazy reference resolver bound to the same
// repositories.
func (s *Records) Resolver() *Resolver {
	return s.resolver
}

// CreateCategory creates a category owned by the caller. Names are
// unique per owner, not globally.
func (s *Records) CreateCategory(ctx context.Context, identity RequestIdentity, payload CreateCategoryPayload) (*Category, error) {
	owner, err := requireSubject(identity)
	if err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid category payload")
	}

	if existing, err := s.repo.Categories().GetByNameForOwner(ctx, owner, payload.Name); err == nil && existing != nil {
		return nil, goerrors.New("a category with that name already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(map[string]any{"name": payload.Name})
	} else if err != nil && !repository.IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing category")
	}

	category := &Category{
		Name:        payload.Name,
		Description: payload.Description,
		UserID:      owner,
	}

	created, err := s.repo.Categories().Create(ctx, category)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create category")
	}

	return created, nil
}

// ListCategories lists the caller's categories.
func (s *Records) ListCategories(ctx context.Context, identity RequestIdentity) ([]*Category, error) {
	owner, err := requireSubject(identity)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Categories().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list categories")
	}

	return records, nil
}

// CreateExpense creates an expense owned by the caller. The target
// category is resolved through the reference resolver, so pointing at
// another account's category fails with Forbidden.
func (s *Records) CreateExpense(ctx context.Context, identity RequestIdentity, payload CreateExpensePayload) (*Expense, error) {
	owner, err := requireSubject(identity)
	if err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid expense payload")
	}

	categoryID, err := uuid.Parse(payload.CategoryID)
	if err != nil {
		return nil, goerrors.New("invalid category id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	category, err := s.resolver.ResolveCategory(ctx, identity, Reference{Kind: RefCategory, ID: categoryID})
	if err != nil {
		return nil, err
	}

	record := &Expense{
		Title:       payload.Title,
		Description: payload.Description,
		Amount:      payload.Amount,
		Date:        payload.Date,
		CategoryID:  category.ID,
		CreatorID:   owner,
	}

	created, err := s.repo.Expenses().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create expense")
	}

	return created, nil
}

// ListExpenses lists the caller's expenses, optionally filtered to one
// of their categories.
func (s *Records) ListExpenses(ctx context.Context, identity RequestIdentity, categoryID *uuid.UUID) ([]*Expense, error) {
	owner, err := requireSubject(identity)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		return s.resolver.ResolveExpenses(ctx, identity, Reference{Kind: RefCategory, ID: *categoryID})
	}

	records, err := s.repo.Expenses().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list expenses")
	}

	return records, nil
}

func requireSubject(identity RequestIdentity) (uuid.UUID, error) {
	if !identity.Authenticated {
		return uuid.Nil, ErrUnauthenticated
	}

	subject, err := uuid.Parse(identity.Subject)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}

	return subject, nil
}
