package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// incidentRepository implements the IncidentRepository interface
type incidentRepository struct {
	db *gorm.DB
}

// NewIncidentRepository creates a new incident repository instance
func NewIncidentRepository(db *gorm.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

func (r *incidentRepository) Create(incident *models.Incident) error {
	return r.db.Create(incident).Error
}

func (r *incidentRepository) GetByID(id uint) (*models.Incident, error) {
	var incident models.Incident
	err := r.db.First(&incident, id).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) ListByProject(projectID uint, offset, limit int) ([]models.Incident, error) {
	var incidents []models.Incident
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&incidents).Error
	return incidents, err
}

func (r *incidentRepository) Update(incident *models.Incident) error {
	return r.db.Save(incident).Error
}

// AddSubscriber inserts a status-page subscriber; re-subscribing the same
// email is a no-op.
func (r *incidentRepository) AddSubscriber(sub *models.StatusSubscriber) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "project_id"},
			{Name: "email"},
		},
		DoNothing: true,
	}).Create(sub).Error
}

func (r *incidentRepository) ListSubscribers(projectID uint) ([]models.StatusSubscriber, error) {
	var subs []models.StatusSubscriber
	err := r.db.Where("project_id = ?", projectID).Find(&subs).Error
	return subs, err
}
