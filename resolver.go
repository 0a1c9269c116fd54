package expense

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ReferenceKind names the record type a Reference points at.
type ReferenceKind string

const (
	RefUser     ReferenceKind = "user"
	RefCategory ReferenceKind = "category"
	RefExpense  ReferenceKind = "expense"
)

// Reference is a deferred foreign key. Records expose these instead of
// embedded related records, the Resolver materializes them on demand
// with the requesting identity in hand, so authorization happens at the
// point of access rather than at the point of listing.
type Reference struct {
	Kind ReferenceKind
	ID   uuid.UUID
}

func (r Reference) IsZero() bool {
	return r.ID == uuid.Nil
}

// OwnerRef points at the account that owns the category.
func (c *Category) OwnerRef() Reference {
	return Reference{Kind: RefUser, ID: c.UserID}
}

// OwnerRef points at the account that created the expense.
func (e *Expense) OwnerRef() Reference {
	return Reference{Kind: RefUser, ID: e.CreatorID}
}

// CategoryRef points at the expense's category.
func (e *Expense) CategoryRef() Reference {
	return Reference{Kind: RefCategory, ID: e.CategoryID}
}

// Resolver materializes References. Every ownership-bearing resolution
// checks the requesting identity against the record's owner and fails
// with ErrForbidden on mismatch.
type Resolver struct {
	repo   RepositoryManager
	logger Logger
}

func NewResolver(repo RepositoryManager) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: defLogger{},
	}
}

func (r *Resolver) WithLogger(logger Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ResolveOwner resolves a user reference. Identities may only resolve
// themselves.
func (r *Resolver) ResolveOwner(ctx context.Context, identity RequestIdentity, ref Reference) (*User, error) {
	subject, err := r.subjectID(identity)
	if err != nil {
		return nil, err
	}

	if ref.Kind != RefUser || ref.IsZero() {
		return nil, ErrNotFound
	}

	if ref.ID != subject {
		return nil, ErrForbidden
	}

	user, err := r.repo.Users().GetByID(ctx, ref.ID.String())
	if err != nil {
		return nil, r.mapLookupError(err, ref)
	}

	return user, nil
}

// ResolveCategory resolves a category reference, denying categories
// owned by another account.
func (r *Resolver) ResolveCategory(ctx context.Context, identity RequestIdentity, ref Reference) (*Category, error) {
	subject, err := r.subjectID(identity)
	if err != nil {
		return nil, err
	}

	if ref.Kind != RefCategory || ref.IsZero() {
		return nil, ErrNotFound
	}

	category, err := r.repo.Categories().GetByID(ctx, ref.ID.String())
	if err != nil {
		return nil, r.mapLookupError(err, ref)
	}

	if category.UserID != subject {
		return nil, ErrForbidden
	}

	return category, nil
}

// ResolveExpense resolves an expense reference, denying expenses
// created by another account.
func (r *Resolver) ResolveExpense(ctx context.Context, identity RequestIdentity, ref Reference) (*Expense, error) {
	subject, err := r.subjectID(identity)
	if err != nil {
		return nil, err
	}

	if ref.Kind != RefExpense || ref.IsZero() {
		return nil, ErrNotFound
	}

	record, err := r.repo.Expenses().GetByID(ctx, ref.ID.String())
	if err != nil {
		return nil, r.mapLookupError(err, ref)
	}

	if record.CreatorID != subject {
		return nil, ErrForbidden
	}

	return record, nil
}

// ResolveExpenses resolves the expense list behind a category
// reference. The category's ownership is checked first so the listing
// never leaks another account's records.
func (r *Resolver) ResolveExpenses(ctx context.Context, identity RequestIdentity, ref Reference) ([]*Expense, error) {
	category, err := r.ResolveCategory(ctx, identity, ref)
	if err != nil {
		return nil, err
	}

	return r.repo.Expenses().ListByCategory(ctx, category.UserID, category.ID)
}

func (r *Resolver) subjectID(identity RequestIdentity) (uuid.UUID, error) {
	return requireSubject(identity)
}

func (r *Resolver) mapLookupError(err error, ref Reference) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return ErrNotFound
	}

	r.logger.Error("resolver lookup error for %s %s: %v", ref.Kind, ref.ID.String(), err)
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve reference")
}
