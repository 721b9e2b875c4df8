package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/constants"
	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/storage"
)

// StorageHandler exposes the object store: raw uploads and downloads under a
// session, plus signed-URL minting and the sessionless signed download.
type StorageHandler struct {
	store     *storage.ObjectStore
	signer    *storage.Signer
	publicURL string
	log       *logrus.Entry
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(store *storage.ObjectStore, signer *storage.Signer, publicURL string) *StorageHandler {
	return &StorageHandler{
		store:     store,
		signer:    signer,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       logrus.WithField("component", "storage"),
	}
}

func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// Upload stores the raw request body under the key.
func (h *StorageHandler) Upload(c *gin.Context) {
	key := objectKey(c)
	if key == "" {
		apierrors.BadRequest(c, "Object key required")
		return
	}

	if err := h.store.Upload(key, c.Request.Body); err != nil {
		h.log.WithError(err).WithField("key", key).Error("object upload failed")
		apierrors.InternalError(c, "Failed to store object")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// Download streams the object.
func (h *StorageHandler) Download(c *gin.Context) {
	h.serveObject(c, objectKey(c))
}

// Remove deletes the object.
func (h *StorageHandler) Remove(c *gin.Context) {
	key := objectKey(c)

	exists, err := h.store.Exists(key)
	if err == nil && !exists {
		apierrors.NotFound(c, "Object not found")
		return
	}

	if err := h.store.Remove(key); err != nil {
		h.log.WithError(err).WithField("key", key).Error("object removal failed")
		apierrors.InternalError(c, "Failed to remove object")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Object removed"})
}

// Sign mints a time-limited URL granting read access to one object.
func (h *StorageHandler) Sign(c *gin.Context) {
	type SignRequest struct {
		Key       string `json:"key" binding:"required"`
		ExpiresIn int    `json:"expires_in"`
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ttl := constants.SignedURLTTL
	if req.ExpiresIn > 0 {
		ttl = time.Duration(req.ExpiresIn) * time.Second
	}

	exists, err := h.store.Exists(req.Key)
	if err != nil || !exists {
		apierrors.NotFound(c, "Object not found")
		return
	}

	token, err := h.signer.Sign(req.Key, ttl)
	if err != nil {
		apierrors.InternalError(c, "Failed to sign object")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url": h.publicURL + "/api/signed/" + token,
	})
}

// ServeSigned serves an object by capability token, without a session.
func (h *StorageHandler) ServeSigned(c *gin.Context) {
	key, err := h.signer.Verify(c.Param("token"))
	if err != nil {
		apierrors.Forbidden(c, "Invalid or expired link")
		return
	}

	h.serveObject(c, key)
}

func (h *StorageHandler) serveObject(c *gin.Context, key string) {
	obj, err := h.store.Download(key)
	if err != nil {
		apierrors.NotFound(c, "Object not found")
		return
	}
	defer obj.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		h.log.WithError(err).WithField("key", key).Warn("object stream interrupted")
	}
}
