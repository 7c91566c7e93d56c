package repository

import (
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// PlanRepository defines the interface for the immutable plan catalog
type PlanRepository interface {
	GetAll() ([]models.Plan, error)
	GetByID(id string) (*models.Plan, error)
}

// LinkRepository defines the interface for link-related database operations.
// RecordView is a database-level atomic increment; concurrent visitors must
// never lose updates.
type LinkRepository interface {
	Create(link *models.Link) error
	GetByID(id string) (*models.Link, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Link, error)
	CountByUserID(userID uint) (int64, error)
	Delete(id string) error
	RecordView(id string) error
	GetStatsByUserID(userID uint) (*LinkStats, error)
}

// TransactionRepository reads the append-only settlement audit trail.
// Writing happens inside the settlement package only.
type TransactionRepository interface {
	GetByUserID(userID uint, offset, limit int) ([]models.Transaction, error)
	GetByExternalReference(ref string) (*models.Transaction, error)
}

// LinkStats aggregates a user's dashboard numbers.
type LinkStats struct {
	TotalLinks   int64 `json:"total_links"`
	ActiveLinks  int64 `json:"active_links"`
	ExpiredLinks int64 `json:"expired_links"`
	TotalViews   int64 `json:"total_views"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Plan        PlanRepository
	Link        LinkRepository
	Transaction TransactionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Plan:        NewPlanRepository(db),
		Link:        NewLinkRepository(db),
		Transaction: NewTransactionRepository(db),
	}
}
