package repository

import (
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// testimonialRepository implements the TestimonialRepository interface
type testimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository creates a new testimonial repository instance
func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(testimonial *models.Testimonial) error {
	return r.db.Create(testimonial).Error
}

func (r *testimonialRepository) GetByID(id uint) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	err := r.db.First(&testimonial, id).Error
	if err != nil {
		return nil, err
	}
	return &testimonial, nil
}

func (r *testimonialRepository) ListByProject(projectID uint, status string, offset, limit int) ([]models.Testimonial, error) {
	query := r.db.Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var testimonials []models.Testimonial
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&testimonials).Error
	return testimonials, err
}

func (r *testimonialRepository) CountByProject(projectID uint, status string) (int64, error) {
	query := r.db.Model(&models.Testimonial{}).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *testimonialRepository) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&models.Testimonial{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *testimonialRepository) Delete(id uint) error {
	return r.db.Delete(&models.Testimonial{}, id).Error
}
