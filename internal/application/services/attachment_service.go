package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// ErrStorageDisabled is returned when no object storage is configured.
var ErrStorageDisabled = errors.New("attachment storage is not configured")

// AttachmentService links media objects to entries. The attachment URL holds
// the object key; clients upload and download through presigned URLs.
type AttachmentService struct {
	store    *store.Store
	uploader ports.AttachmentUploader
	logger   *logger.Logger
	now      func() time.Time
}

func NewAttachmentService(st *store.Store, uploader ports.AttachmentUploader, logger *logger.Logger) *AttachmentService {
	return &AttachmentService{
		store:    st,
		uploader: uploader,
		logger:   logger.WithComponent("attachment_service"),
		now:      time.Now,
	}
}

// Enabled reports whether object storage is available.
func (s *AttachmentService) Enabled() bool {
	return s.uploader != nil
}

// RequestUpload appends an attachment to the entry and returns a presigned
// upload URL for its object.
func (s *AttachmentService) RequestUpload(ctx context.Context, entryID string, req ports.AttachmentUploadRequest) (*ports.AttachmentUploadResponse, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	if !req.Type.Valid() {
		return nil, entities.NewValidationError("type", fmt.Sprintf("unknown attachment type %q", req.Type))
	}
	filename := sanitizeFilename(req.Filename)
	if filename == "" {
		return nil, entities.NewValidationError("filename", "must not be empty")
	}

	if _, ok := s.store.Entry(entryID); !ok {
		return nil, fmt.Errorf("attach to entry %s: %w", entryID, entities.ErrEntryNotFound)
	}

	id := uuid.NewString()
	key := ObjectKey(entryID, id, filename)
	uploadURL, err := s.uploader.PresignUpload(ctx, key)
	if err != nil {
		s.logger.LogPersistenceFailure("presign upload", key, err)
		return nil, entities.NewPersistenceError("presign upload", err)
	}

	now := s.now()
	attachment := entities.Attachment{
		ID:        id,
		EntryID:   entryID,
		Type:      req.Type,
		URL:       key,
		Filename:  filename,
		Size:      req.Size,
		CreatedAt: now,
	}
	_, err = s.store.ModifyEntry(entryID, func(entry entities.JournalEntry) (entities.EntryPatch, error) {
		attachments := append(entry.Attachments, attachment)
		return entities.EntryPatch{Attachments: &attachments, UpdatedAt: &now}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Attachment registered", "entry_id", entryID, "attachment_id", id, "key", key)
	return &ports.AttachmentUploadResponse{Attachment: attachment, UploadURL: uploadURL}, nil
}

// DownloadURL returns a presigned URL for the attachment's object.
func (s *AttachmentService) DownloadURL(ctx context.Context, entryID, attachmentID string) (string, error) {
	if s.uploader == nil {
		return "", ErrStorageDisabled
	}
	attachment, err := s.find(entryID, attachmentID)
	if err != nil {
		return "", err
	}
	url, err := s.uploader.PresignDownload(ctx, attachment.URL)
	if err != nil {
		s.logger.LogPersistenceFailure("presign download", attachment.URL, err)
		return "", entities.NewPersistenceError("presign download", err)
	}
	return url, nil
}

// RemoveAttachment unlinks an attachment from its entry. The object itself is
// left to bucket lifecycle rules.
func (s *AttachmentService) RemoveAttachment(entryID, attachmentID string) error {
	now := s.now()
	_, err := s.store.ModifyEntry(entryID, func(entry entities.JournalEntry) (entities.EntryPatch, error) {
		kept := make([]entities.Attachment, 0, len(entry.Attachments))
		for _, a := range entry.Attachments {
			if a.ID != attachmentID {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(entry.Attachments) {
			return entities.EntryPatch{}, fmt.Errorf("attachment %s: %w", attachmentID, entities.ErrNotFound)
		}
		return entities.EntryPatch{Attachments: &kept, UpdatedAt: &now}, nil
	})
	if errors.Is(err, entities.ErrEntryNotFound) {
		return fmt.Errorf("detach from entry %s: %w", entryID, entities.ErrEntryNotFound)
	}
	return err
}

func (s *AttachmentService) find(entryID, attachmentID string) (entities.Attachment, error) {
	entry, ok := s.store.Entry(entryID)
	if !ok {
		return entities.Attachment{}, fmt.Errorf("entry %s: %w", entryID, entities.ErrEntryNotFound)
	}
	for _, a := range entry.Attachments {
		if a.ID == attachmentID {
			return a, nil
		}
	}
	return entities.Attachment{}, fmt.Errorf("attachment %s: %w", attachmentID, entities.ErrNotFound)
}

// ObjectKey builds the storage key for an attachment.
func ObjectKey(entryID, attachmentID, filename string) string {
	return path.Join("entries", entryID, attachmentID+"-"+filename)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
