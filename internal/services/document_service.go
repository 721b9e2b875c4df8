package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/repository"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentService handles document-record business logic. Records are
// immutable after insert; the binary itself lives in object storage and is
// written by the client before the record insert.
type DocumentService struct {
	docRepo repository.DocumentRepository
	hub     *realtime.Hub
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(docRepo repository.DocumentRepository, hub *realtime.Hub) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		hub:     hub,
	}
}

// CreateDocumentInput represents input for creating a document record
type CreateDocumentInput struct {
	TaskID      string
	Name        string
	FilePath    string
	FileSize    int64
	ContentType string
	UploadedBy  string
}

// ListByTask lists a task's document records, newest first.
func (s *DocumentService) ListByTask(taskID string) ([]models.TaskDocument, error) {
	docs, err := s.docRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// CreateDocument inserts a record and publishes the INSERT event.
func (s *DocumentService) CreateDocument(input CreateDocumentInput) (*models.TaskDocument, error) {
	doc := &models.TaskDocument{
		TaskID:      input.TaskID,
		Name:        input.Name,
		FilePath:    input.FilePath,
		FileSize:    input.FileSize,
		ContentType: input.ContentType,
		UploadedBy:  input.UploadedBy,
	}

	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionInsert, realtime.TableDocuments, doc, nil))
	return doc, nil
}

// DeleteDocument removes a record and publishes the DELETE event carrying it.
func (s *DocumentService) DeleteDocument(id string) error {
	old, err := s.docRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to find document: %w", err)
	}

	if err := s.docRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionDelete, realtime.TableDocuments, nil, old))
	return nil
}
