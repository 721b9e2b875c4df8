package repository

import (
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
)

// GormDocumentRepository is a GORM implementation of DocumentRepository
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create creates a new document record
func (r *GormDocumentRepository) Create(doc *models.TaskDocument) error {
	return r.db.Create(doc).Error
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(id string) (*models.TaskDocument, error) {
	var doc models.TaskDocument
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByTask lists a task's documents, newest first
func (r *GormDocumentRepository) ListByTask(taskID string) ([]models.TaskDocument, error) {
	var docs []models.TaskDocument
	if err := r.db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByTaskAndName counts documents under a task with the given name
func (r *GormDocumentRepository) CountByTaskAndName(taskID, name string) (int64, error) {
	var count int64
	err := r.db.Model(&models.TaskDocument{}).
		Where("task_id = ? AND name = ?", taskID, name).
		Count(&count).Error
	return count, err
}

// Delete removes a document record
func (r *GormDocumentRepository) Delete(id string) error {
	return r.db.Delete(&models.TaskDocument{}, "id = ?", id).Error
}

// DeleteByTask removes all document records of a task
func (r *GormDocumentRepository) DeleteByTask(taskID string) error {
	return r.db.Delete(&models.TaskDocument{}, "task_id = ?", taskID).Error
}
