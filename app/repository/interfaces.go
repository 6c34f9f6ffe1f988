package repository

import (
	"github.com/CodeFuMaster/TrustLoops/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	GetBillingAccount(userID uint) (*models.BillingAccount, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// ProjectRepository defines the interface for project-related database operations
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByID(id uint) (*models.Project, error)
	GetByWidgetKey(widgetKey string) (*models.Project, error)
	GetByUserID(userID uint) ([]models.Project, error)
	Update(project *models.Project) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// TestimonialRepository defines the interface for testimonial operations
type TestimonialRepository interface {
	Create(testimonial *models.Testimonial) error
	GetByID(id uint) (*models.Testimonial, error)
	ListByProject(projectID uint, status string, offset, limit int) ([]models.Testimonial, error)
	CountByProject(projectID uint, status string) (int64, error)
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
}

// IncidentRepository defines the interface for status-page incident operations
type IncidentRepository interface {
	Create(incident *models.Incident) error
	GetByID(id uint) (*models.Incident, error)
	ListByProject(projectID uint, offset, limit int) ([]models.Incident, error)
	Update(incident *models.Incident) error
	AddSubscriber(sub *models.StatusSubscriber) error
	ListSubscribers(projectID uint) ([]models.StatusSubscriber, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User        UserRepository
	Project     ProjectRepository
	Testimonial TestimonialRepository
	Incident    IncidentRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Project:     NewProjectRepository(db),
		Testimonial: NewTestimonialRepository(db),
		Incident:    NewIncidentRepository(db),
	}
}
