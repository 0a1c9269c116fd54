package expense

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IncrementLoginAttemptsSQL bumps the counter at the storage layer so
// concurrent failed attempts never lose an update. The RETURNING clause
// gives the caller the post-increment count to compare against the
// lockout threshold.
var IncrementLoginAttemptsSQL = `UPDATE "users" AS "usr"
SET
	"loginAttempts" = "loginAttempts" + 1
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var TrackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"lastLogin" = ?,
	"loginAttempts" = 0,
	"lockUntil" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ResetUserPasswordSQL swaps the password hash, consumes the reset
// token pair, and clears the lockout state in a single statement.
var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"passwordResetToken" = NULL,
	"passwordResetExpires" = NULL,
	"loginAttempts" = 0,
	"lockUntil" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// MarkEmailVerifiedSQL consumes the verification token pair and flips
// the verified flag in a single statement.
var MarkEmailVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"isEmailVerified" = TRUE,
	"emailVerificationToken" = NULL,
	"emailVerificationExpires" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	IncrementLoginAttempts(ctx context.Context, user *User) (int, error)
	SetLockUntil(ctx context.Context, user *User, until time.Time) error
	ResetAttempts(ctx context.Context, user *User, attempts int) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	FindByResetToken(ctx context.Context, token string) (*User, error)
	FindByVerificationToken(ctx context.Context, token string) (*User, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ CredentialStore              = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	email = NormalizeEmail(email)

	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) IncrementLoginAttempts(ctx context.Context, user *User) (int, error) {
	res, err := a.Repository.RawTx(ctx, a.db, IncrementLoginAttemptsSQL, user.ID.String())
	if err != nil {
		return 0, err
	}

	if len(res) == 0 {
		return 0, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": user.ID.String(),
			})
	}

	return res[0].LoginAttempts, nil
}

func (a *users) SetLockUntil(ctx context.Context, user *User, until time.Time) error {
	record := &User{}
	record.ID = user.ID
	record.LockUntil = &until

	_, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(user.ID.String()))
	return err
}

func (a *users) ResetAttempts(ctx context.Context, user *User, attempts int) error {
	// NOTE: Updating through the ORM omits zeroed fields, so we clear
	// the counter and lock with raw SQL.
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loginAttempts" = ?,
			"lockUntil" = NULL
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, attempts, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	lastLogin := time.Now()
	res, err := a.Repository.RawTx(ctx, a.db, TrackSuccessfulLoginSQL, lastLogin, user.ID.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": user.ID.String(),
			})
	}

	return nil
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	record := &User{}
	record.ID = id
	record.ResetToken = &token
	record.ResetExpires = &expires

	_, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
	return err
}

func (a *users) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	record := &User{}
	record.ID = id
	record.VerifyToken = &token
	record.VerifyExpires = &expires

	_, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
	return err
}

func (a *users) FindByResetToken(ctx context.Context, token string) (*User, error) {
	return a.findByToken(ctx, `?TableAlias."passwordResetToken" = ?`, token)
}

func (a *users) FindByVerificationToken(ctx context.Context, token string) (*User, error) {
	return a.findByToken(ctx, `?TableAlias."emailVerificationToken" = ?`, token)
}

func (a *users) findByToken(ctx context.Context, clause, token string) (*User, error) {
	if token == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where(clause, token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return a.MarkEmailVerifiedTx(ctx, a.db, id)
}

func (a *users) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, MarkEmailVerifiedSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
