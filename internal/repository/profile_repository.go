package repository

import (
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
)

// GormProfileRepository is a GORM implementation of ProfileRepository
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

// Create creates a new profile
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// FindByID finds a profile by ID
func (r *GormProfileRepository) FindByID(id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByEmail finds a profile by email
func (r *GormProfileRepository) FindByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// List lists all profiles ordered by full name
func (r *GormProfileRepository) List() ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.Order("full_name").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateFullName updates the one client-editable field
func (r *GormProfileRepository) UpdateFullName(id string, fullName *string) (*models.Profile, error) {
	if err := r.db.Model(&models.Profile{}).Where("id = ?", id).
		Update("full_name", fullName).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
