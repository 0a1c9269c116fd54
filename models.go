package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. The credential, token, and lockout column
// names match the legacy dataset and must not be renamed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	EmailValidated bool       `bun:"isEmailVerified" json:"is_email_verified,omitempty"`
	VerifyToken    *string    `bun:"emailVerificationToken,nullzero" json:"-"`
	VerifyExpires  *time.Time `bun:"emailVerificationExpires,nullzero" json:"-"`
	ResetToken     *string    `bun:"passwordResetToken,nullzero" json:"-"`
	ResetExpires   *time.Time `bun:"passwordResetExpires,nullzero" json:"-"`
	LoginAttempts  int        `bun:"loginAttempts" json:"login_attempts,omitempty"`
	LockUntil      *time.Time `bun:"lockUntil,nullzero" json:"lock_until,omitempty"`
	LastLogin      *time.Time `bun:"lastLogin,nullzero" json:"last_login,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPendingVerification reports whether a verification token pair is set.
// The token and its expiry are always both present or both absent.
func (u *User) HasPendingVerification() bool {
	return u.VerifyToken != nil && u.VerifyExpires != nil
}

// HasPendingReset reports whether a reset token pair is set.
func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && u.ResetExpires != nil
}

// DisplayName joins the name fields for notification templates.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NormalizeEmail lower-cases and trims an email address. Every lookup and
// every write of User.Email goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Category is a per-user expense category. Names are unique per owner,
// not globally.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name        string     `bun:"name,notnull" json:"name,omitempty"`
	Description string     `bun:"description" json:"description,omitempty"`
	UserID      uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User        *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expense is a single expense record owned by its creator.
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:exp"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title       string     `bun:"title,notnull" json:"title,omitempty"`
	Description string     `bun:"description" json:"description,omitempty"`
	Amount      float64    `bun:"amount,notnull" json:"amount,omitempty"`
	Date        time.Time  `bun:"date,notnull" json:"date,omitempty"`
	CategoryID  uuid.UUID  `bun:"category_id,notnull,type:uuid" json:"category_id,omitempty"`
	Category    *Category  `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	CreatorID   uuid.UUID  `bun:"creator_id,notnull,type:uuid" json:"creator_id,omitempty"`
	Creator     *User      `bun:"rel:belongs-to,join:creator_id=id" json:"creator,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
