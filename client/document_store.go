package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/storage"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDocumentNameTaken = errors.New("a document with this name already exists for this task")
)

// DocumentStore mirrors the task_documents table, bucketed by task id with
// the newest first. Upload and delete are two-step operations against object
// storage and the row store; the steps are not transactional, so the failure
// paths compensate where they can and log where they cannot.
type DocumentStore struct {
	mu      sync.Mutex
	gw      Gateway
	log     *logrus.Entry
	byTask  map[string][]models.TaskDocument
	loading bool
}

// NewDocumentStore creates a DocumentStore over the gateway.
func NewDocumentStore(gw Gateway) *DocumentStore {
	return &DocumentStore{
		gw:     gw,
		log:    logrus.WithField("store", "documents"),
		byTask: make(map[string][]models.TaskDocument),
	}
}

// Documents returns a snapshot of one task's bucket.
func (s *DocumentStore) Documents(taskID string) []models.TaskDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.byTask[taskID]
	out := make([]models.TaskDocument, len(bucket))
	copy(out, bucket)
	return out
}

// Loading reports whether a fetch or upload is in flight.
func (s *DocumentStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// FetchForTask replaces one task's bucket with the server's rows; other
// tasks' buckets are untouched.
func (s *DocumentStore) FetchForTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	docs, err := s.gw.Documents().ListForTask(ctx, taskID)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.byTask[taskID] = docs
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("failed to fetch documents")
		return fmt.Errorf("failed to fetch documents: %w", err)
	}
	return nil
}

// Upload stores the binary under a randomized task-scoped key, then inserts
// the document record. The name pre-check is advisory: it is a read-then-
// write check and a concurrent upload can still slip through. If the record
// insert fails after the object was written, the object is removed again.
func (s *DocumentStore) Upload(ctx context.Context, taskID, name, contentType string, r io.Reader, size int64) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	existing, err := s.gw.Documents().ListForTask(ctx, taskID)
	if err != nil {
		s.log.WithError(err).Error("failed to check for existing document")
		return fmt.Errorf("failed to check for existing document: %w", err)
	}
	for _, doc := range existing {
		if doc.Name == name {
			return ErrDocumentNameTaken
		}
	}

	key, err := storage.NewObjectKey(taskID, name)
	if err != nil {
		return err
	}

	if err := s.gw.Storage().Upload(ctx, key, r); err != nil {
		s.log.WithError(err).Error("failed to store document object")
		return fmt.Errorf("failed to store document object: %w", err)
	}

	doc, err := s.gw.Documents().Insert(ctx, DocumentDraft{
		TaskID:      taskID,
		Name:        name,
		FilePath:    key,
		FileSize:    size,
		ContentType: contentType,
	})
	if err != nil {
		// Compensate the object write; an orphaned object that also fails
		// to remove is only logged for offline cleanup
		if rerr := s.gw.Storage().Remove(ctx, key); rerr != nil {
			s.log.WithError(rerr).WithField("key", key).
				Error("orphaned object after failed record insert")
		}
		s.log.WithError(err).Error("failed to create document record")
		return fmt.Errorf("failed to create document record: %w", err)
	}

	s.applyInsert(taskID, *doc)
	return nil
}

// Delete removes the storage object and then the record. If the object
// removal fails, the record is preserved and the operation reports failure;
// if the record delete fails after the object went away, the inconsistent
// record is logged for offline cleanup. The local bucket changes only after
// both steps succeed.
func (s *DocumentStore) Delete(ctx context.Context, id, taskID string) error {
	doc, ok := s.get(taskID, id)
	if !ok {
		return ErrDocumentNotFound
	}

	if err := s.gw.Storage().Remove(ctx, doc.FilePath); err != nil {
		s.log.WithError(err).Error("failed to remove document object")
		return fmt.Errorf("failed to remove document object: %w", err)
	}

	if err := s.gw.Documents().Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("id", id).
			Error("document record left behind after object removal")
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	s.removeByID(taskID, id)
	return nil
}

// PreviewURL returns a time-limited signed link to the document, or "" when
// signing fails; the preview affordance is optional.
func (s *DocumentStore) PreviewURL(ctx context.Context, doc models.TaskDocument) string {
	url, err := s.gw.Storage().CreateSignedURL(ctx, doc.FilePath, constants.SignedURLTTL)
	if err != nil {
		s.log.WithError(err).Warn("failed to create signed url")
		return ""
	}
	return url
}

// Download streams the document's bytes into w.
func (s *DocumentStore) Download(ctx context.Context, doc models.TaskDocument, w io.Writer) error {
	obj, err := s.gw.Storage().Download(ctx, doc.FilePath)
	if err != nil {
		s.log.WithError(err).Error("failed to download document")
		return fmt.Errorf("failed to download document: %w", err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// SubscribeForTask opens a change feed filtered to one task's documents.
// Documents are immutable, so only insert and delete are reconciled.
func (s *DocumentStore) SubscribeForTask(ctx context.Context, taskID string) (func(), error) {
	filter := "task_id=eq." + taskID
	sub, err := s.gw.Subscribe(ctx, realtime.TableDocuments, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to documents: %w", err)
	}

	go func() {
		for ev := range sub.Events() {
			s.reconcile(taskID, ev)
		}
	}()

	return func() { sub.Close() }, nil
}

func (s *DocumentStore) reconcile(taskID string, ev realtime.Event) {
	switch ev.Action {
	case realtime.ActionInsert:
		var doc models.TaskDocument
		if err := ev.DecodeNew(&doc); err != nil {
			s.log.WithError(err).Warn("undecodable insert event")
			return
		}
		s.applyInsert(taskID, doc)

	case realtime.ActionDelete:
		var old models.TaskDocument
		if err := ev.DecodeOld(&old); err != nil {
			s.log.WithError(err).Warn("undecodable delete event")
			return
		}
		s.removeByID(taskID, old.ID)
	}
}

func (s *DocumentStore) get(taskID, id string) (models.TaskDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.byTask[taskID] {
		if d.ID == id {
			return d, true
		}
	}
	return models.TaskDocument{}, false
}

func (s *DocumentStore) applyInsert(taskID string, doc models.TaskDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.byTask[taskID] {
		if d.ID == doc.ID {
			return
		}
	}
	s.byTask[taskID] = append([]models.TaskDocument{doc}, s.byTask[taskID]...)
}

func (s *DocumentStore) removeByID(taskID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.byTask[taskID]
	for i, d := range bucket {
		if d.ID == id {
			s.byTask[taskID] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}
