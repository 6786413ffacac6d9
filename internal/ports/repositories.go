package ports

import (
	"context"

	"github.com/journify/core/internal/domain/entities"
)

// EntryRepository persists journal entries together with their tag links and
// attachments.
type EntryRepository interface {
	Save(ctx context.Context, entry *entities.JournalEntry) error
	GetByID(ctx context.Context, id string) (*entities.JournalEntry, error)
	ListByUser(ctx context.Context, userID string) ([]entities.JournalEntry, error)
	Delete(ctx context.Context, id string) error
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Save(ctx context.Context, tag *entities.Tag) error
	GetByID(ctx context.Context, id string) (*entities.Tag, error)
	ListByUser(ctx context.Context, userID string) ([]entities.Tag, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
}

// Gateway bundles the remote repositories the sync worker talks to.
type Gateway struct {
	Entries EntryRepository
	Tags    TagRepository
	Users   UserRepository
}

// SnapshotStore is a keyed blob store holding the persisted store snapshot.
// Load returns entities.ErrNotFound when the key has never been written.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// AttachmentUploader hands out short-lived upload and download URLs for
// attachment objects.
type AttachmentUploader interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}
