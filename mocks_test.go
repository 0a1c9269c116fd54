package expense_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	expense "github.com/goliatone/go-expense"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func testConfig() expense.Options {
	return expense.Options{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   []string{"test:audience"},
		ClientURL:  "https://app.example.com",
	}
}

// fakeCredentialStore is an in-memory CredentialStore. It records the
// lockout mutations the machine performs so scenarios can assert on
// them.
type fakeCredentialStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*expense.User

	incrementErr error
}

func newFakeCredentialStore(users ...*expense.User) *fakeCredentialStore {
	s := &fakeCredentialStore{
		users: map[uuid.UUID]*expense.User{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeCredentialStore) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*expense.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = expense.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s *fakeCredentialStore) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*expense.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}

	if u, ok := s.users[uid]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *fakeCredentialStore) IncrementLoginAttempts(ctx context.Context, user *expense.User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.incrementErr != nil {
		return 0, s.incrementErr
	}

	u, ok := s.users[user.ID]
	if !ok {
		return 0, repository.NewRecordNotFound()
	}
	u.LoginAttempts++
	return u.LoginAttempts, nil
}

func (s *fakeCredentialStore) SetLockUntil(ctx context.Context, user *expense.User, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[user.ID]; ok {
		u.LockUntil = &until
	}
	return nil
}

func (s *fakeCredentialStore) ResetAttempts(ctx context.Context, user *expense.User, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[user.ID]; ok {
		u.LoginAttempts = attempts
		u.LockUntil = nil
	}
	return nil
}

func (s *fakeCredentialStore) TrackSuccessfulLogin(ctx context.Context, user *expense.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[user.ID]; ok {
		now := time.Now()
		u.LoginAttempts = 0
		u.LockUntil = nil
		u.LastLogin = &now
	}
	return nil
}

// fakeUsers extends the credential store to the full Users interface.
// The embedded interface covers the methods a test never reaches.
type fakeUsers struct {
	expense.Users
	*fakeCredentialStore
}

func newFakeUsers(users ...*expense.User) *fakeUsers {
	return &fakeUsers{fakeCredentialStore: newFakeCredentialStore(users...)}
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*expense.User, error) {
	return f.fakeCredentialStore.GetByEmail(ctx, email, criteria...)
}

func (f *fakeUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*expense.User, error) {
	return f.fakeCredentialStore.GetByEmail(ctx, email, criteria...)
}

func (f *fakeUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*expense.User, error) {
	return f.fakeCredentialStore.GetByID(ctx, id, criteria...)
}

func (f *fakeUsers) IncrementLoginAttempts(ctx context.Context, user *expense.User) (int, error) {
	return f.fakeCredentialStore.IncrementLoginAttempts(ctx, user)
}

func (f *fakeUsers) SetLockUntil(ctx context.Context, user *expense.User, until time.Time) error {
	return f.fakeCredentialStore.SetLockUntil(ctx, user, until)
}

func (f *fakeUsers) ResetAttempts(ctx context.Context, user *expense.User, attempts int) error {
	return f.fakeCredentialStore.ResetAttempts(ctx, user, attempts)
}

func (f *fakeUsers) TrackSuccessfulLogin(ctx context.Context, user *expense.User) error {
	return f.fakeCredentialStore.TrackSuccessfulLogin(ctx, user)
}

func (f *fakeUsers) CreateTx(ctx context.Context, tx bun.IDB, record *expense.User, criteria ...repository.InsertCriteria) (*expense.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = expense.NormalizeEmail(record.Email)
	f.users[record.ID] = record
	return record, nil
}

func (f *fakeUsers) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		u.ResetToken = &token
		u.ResetExpires = &expires
	}
	return nil
}

func (f *fakeUsers) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		u.VerifyToken = &token
		u.VerifyExpires = &expires
	}
	return nil
}

func (f *fakeUsers) FindByResetToken(ctx context.Context, token string) (*expense.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) FindByVerificationToken(ctx context.Context, token string) (*expense.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.VerifyToken != nil && *u.VerifyToken == token {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetExpires = nil
	u.LoginAttempts = 0
	u.LockUntil = nil
	return nil
}

func (f *fakeUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.EmailValidated = true
	u.VerifyToken = nil
	u.VerifyExpires = nil
	return nil
}

// fakeCategories is an in-memory Categories repository.
type fakeCategories struct {
	expense.Categories
	mu      sync.Mutex
	records map[uuid.UUID]*expense.Category
}

func newFakeCategories(records ...*expense.Category) *fakeCategories {
	f := &fakeCategories{records: map[uuid.UUID]*expense.Category{}}
	for _, c := range records {
		f.records[c.ID] = c
	}
	return f
}

func (f *fakeCategories) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*expense.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}
	if c, ok := f.records[uid]; ok {
		return c, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeCategories) GetByNameForOwner(ctx context.Context, ownerID uuid.UUID, name string) (*expense.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.records {
		if c.UserID == ownerID && c.Name == name {
			return c, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeCategories) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*expense.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*expense.Category
	for _, c := range f.records {
		if c.UserID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) Create(ctx context.Context, record *expense.Category, criteria ...repository.InsertCriteria) (*expense.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records[record.ID] = record
	return record, nil
}

// fakeExpenses is an in-memory Expenses repository.
type fakeExpenses struct {
	expense.Expenses
	mu      sync.Mutex
	records map[uuid.UUID]*expense.Expense
}

func newFakeExpenses(records ...*expense.Expense) *fakeExpenses {
	f := &fakeExpenses{records: map[uuid.UUID]*expense.Expense{}}
	for _, e := range records {
		f.records[e.ID] = e
	}
	return f
}

func (f *fakeExpenses) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}
	if e, ok := f.records[uid]; ok {
		return e, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeExpenses) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*expense.Expense
	for _, e := range f.records {
		if e.CreatorID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenses) ListByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) ([]*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*expense.Expense
	for _, e := range f.records {
		if e.CreatorID == ownerID && e.CategoryID == categoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenses) Create(ctx context.Context, record *expense.Expense, criteria ...repository.InsertCriteria) (*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records[record.ID] = record
	return record, nil
}

// fakeRepoManager wires the fakes behind the RepositoryManager
// interface. RunInTx just invokes the function, the fakes have no
// transaction semantics.
type fakeRepoManager struct {
	users      *fakeUsers
	categories *fakeCategories
	expenses   *fakeExpenses
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsers(),
		categories: newFakeCategories(),
		expenses:   newFakeExpenses(),
	}
}

func (m *fakeRepoManager) Users() expense.Users           { return m.users }
func (m *fakeRepoManager) Categories() expense.Categories { return m.categories }
func (m *fakeRepoManager) Expenses() expense.Expenses     { return m.expenses }
func (m *fakeRepoManager) Validate() error                { return nil }
func (m *fakeRepoManager) MustValidate()                  {}

func (m *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// recordingMailer captures outbound notifications.
type recordingMailer struct {
	mu    sync.Mutex
	sends []mailerSend
	fail  error
}

type mailerSend struct {
	To       string
	Template string
	Vars     map[string]any
}

func (m *recordingMailer) Send(ctx context.Context, to, template string, vars map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.sends = append(m.sends, mailerSend{To: to, Template: template, Vars: vars})
	return nil
}

func (m *recordingMailer) sent() []mailerSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailerSend(nil), m.sends...)
}
