package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) PresignUpload(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://upload.example/" + key, nil
}

func (f *fakeUploader) PresignDownload(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://download.example/" + key, nil
}

// gatedUploader holds every presign until n callers have arrived, so their
// store updates race.
type gatedUploader struct {
	fakeUploader
	mu      sync.Mutex
	arrived sync.WaitGroup
}

func newGatedUploader(n int) *gatedUploader {
	g := &gatedUploader{}
	g.arrived.Add(n)
	return g
}

func (g *gatedUploader) PresignUpload(ctx context.Context, key string) (string, error) {
	g.arrived.Done()
	g.arrived.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeUploader.PresignUpload(ctx, key)
}

func newAttachmentService(t *testing.T, uploader ports.AttachmentUploader) (*AttachmentService, *store.Store) {
	t.Helper()
	st := store.New(logger.NewNop())
	require.NoError(t, st.AddEntry(journalEntry("e1", base, base, "beach day")))
	svc := NewAttachmentService(st, uploader, logger.NewNop())
	svc.now = func() time.Time { return base.Add(time.Hour) }
	return svc, st
}

func TestAttachmentService_Disabled(t *testing.T) {
	svc, _ := newAttachmentService(t, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.RequestUpload(context.Background(), "e1", ports.AttachmentUploadRequest{Filename: "a.jpg", Type: entities.AttachmentTypeImage})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.DownloadURL(context.Background(), "e1", "x")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestAttachmentService_RequestUpload(t *testing.T) {
	uploader := &fakeUploader{}
	svc, st := newAttachmentService(t, uploader)
	assert.True(t, svc.Enabled())

	resp, err := svc.RequestUpload(context.Background(), "e1", ports.AttachmentUploadRequest{
		Filename: "../../photos/sunset.jpg",
		Type:     entities.AttachmentTypeImage,
		Size:     2048,
	})
	require.NoError(t, err)

	key := ObjectKey("e1", resp.Attachment.ID, "sunset.jpg")
	assert.Equal(t, "entries/e1/"+resp.Attachment.ID+"-sunset.jpg", key)
	assert.Equal(t, key, resp.Attachment.URL)
	assert.Equal(t, "sunset.jpg", resp.Attachment.Filename)
	assert.Equal(t, "https://upload.example/"+key, resp.UploadURL)
	assert.Equal(t, []string{key}, uploader.keys)

	entry, _ := st.Entry("e1")
	require.Len(t, entry.Attachments, 1)
	assert.Equal(t, resp.Attachment.ID, entry.Attachments[0].ID)
	assert.Equal(t, base.Add(time.Hour), entry.UpdatedAt)

	url, err := svc.DownloadURL(context.Background(), "e1", resp.Attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://download.example/"+key, url)

	require.NoError(t, svc.RemoveAttachment("e1", resp.Attachment.ID))
	entry, _ = st.Entry("e1")
	assert.Empty(t, entry.Attachments)
	assert.ErrorIs(t, svc.RemoveAttachment("e1", resp.Attachment.ID), entities.ErrNotFound)
}

func TestAttachmentService_RequestUploadValidation(t *testing.T) {
	svc, st := newAttachmentService(t, &fakeUploader{})
	ctx := context.Background()

	_, err := svc.RequestUpload(ctx, "e1", ports.AttachmentUploadRequest{Filename: "a.pdf", Type: "document"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = svc.RequestUpload(ctx, "e1", ports.AttachmentUploadRequest{Filename: "  ", Type: entities.AttachmentTypeAudio})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = svc.RequestUpload(ctx, "missing", ports.AttachmentUploadRequest{Filename: "a.mp3", Type: entities.AttachmentTypeAudio})
	assert.ErrorIs(t, err, entities.ErrEntryNotFound)

	entry, _ := st.Entry("e1")
	assert.Empty(t, entry.Attachments)
}

func TestAttachmentService_PresignFailure(t *testing.T) {
	svc, st := newAttachmentService(t, &fakeUploader{err: errors.New("no credentials")})

	_, err := svc.RequestUpload(context.Background(), "e1", ports.AttachmentUploadRequest{Filename: "clip.mp4", Type: entities.AttachmentTypeVideo})
	assert.ErrorIs(t, err, entities.ErrPersistence)

	entry, _ := st.Entry("e1")
	assert.Empty(t, entry.Attachments)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":          "photo.png",
		"  dir/a.png ":       "a.png",
		`C:\Users\me\b.jpg`: "b.jpg",
		"":                   "",
		"/":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestAttachmentService_ConcurrentUploadsKeepEveryAttachment(t *testing.T) {
	const n = 4
	svc, st := newAttachmentService(t, newGatedUploader(n))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestUpload(context.Background(), "e1", ports.AttachmentUploadRequest{
				Filename: "photo.jpg", Type: entities.AttachmentTypeImage, Size: 10,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entry, _ := st.Entry("e1")
	require.Len(t, entry.Attachments, n)

	var rwg sync.WaitGroup
	for _, a := range entry.Attachments {
		rwg.Add(1)
		go func(id string) {
			defer rwg.Done()
			assert.NoError(t, svc.RemoveAttachment("e1", id))
		}(a.ID)
	}
	rwg.Wait()

	entry, _ = st.Entry("e1")
	assert.Empty(t, entry.Attachments)
}
