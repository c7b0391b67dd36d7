package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"go.uber.org/zap"
)

// ImageUploader stores images on the image host and returns one public URL
// per file, in input order.
type ImageUploader interface {
	Upload(ctx context.Context, files []model.ImageFile, folder string) ([]string, error)
}

// RejectionSession collects rejection reasons for one URL and commits them
// as a single Reject call.
type RejectionSession struct {
	store    *ModerationStore
	uploader ImageUploader
	folder   string
	logger   *zap.Logger

	mu       sync.Mutex
	targetID string
	staged   []model.ErrorEntry
	failed   int
}

// NewRejectionSession returns a closed session. Raw images are uploaded to
// folder through uploader.
func NewRejectionSession(store *ModerationStore, uploader ImageUploader, folder string) *RejectionSession {
	return &RejectionSession{
		store:    store,
		uploader: uploader,
		folder:   folder,
		logger:   store.logger.Named("rejection"),
	}
}

// Open targets the session at id and drops anything staged before.
func (r *RejectionSession) Open(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targetID = id
	r.staged = nil
	r.failed = 0
}

// Close drops the target and the staged reasons without committing.
// The upload failure count survives until the next Open.
func (r *RejectionSession) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targetID = ""
	r.staged = nil
}

// TargetID returns the id of the record the session is open for.
func (r *RejectionSession) TargetID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetID
}

// UploadFailures returns how many raw images failed to upload since Open.
func (r *RejectionSession) UploadFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Staged returns a copy of the reasons waiting to be committed.
func (r *RejectionSession) Staged() []model.ErrorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ErrorEntry(nil), r.staged...)
}

// Stage adds a reason. Blank text is refused with ErrValidation. A raw image
// is uploaded first; if the upload fails the reason is still staged without
// an image URL so the text is not lost.
func (r *RejectionSession) Stage(ctx context.Context, in ErrorInput) error {
	text := strings.TrimSpace(in.text)
	if text == "" {
		return validationErr("error text is empty")
	}

	entry := model.ErrorEntry{
		Text:      text,
		Timestamp: r.store.clock.Now(),
	}

	switch in.kind {
	case inputWithImageURL:
		if in.imageURL != "" {
			entry.ImageURL = stringPtr(in.imageURL)
		}
		entry.ImagePreview = optional(in.preview)
	case inputWithRawImage:
		entry.ImageURL = r.upload(ctx, in.image)
		entry.ImagePreview = optional(in.preview)
	}

	r.mu.Lock()
	r.staged = append(r.staged, entry)
	r.mu.Unlock()
	return nil
}

// Unstage removes the staged reason at index. Out of range is a no-op.
func (r *RejectionSession) Unstage(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.staged) {
		return
	}
	r.staged = append(r.staged[:index], r.staged[index+1:]...)
}

// Commit rejects the target with every staged reason, refreshes the store and
// closes the session. On failure the session keeps its state for a retry.
func (r *RejectionSession) Commit(ctx context.Context) error {
	r.mu.Lock()
	id := r.targetID
	entries := append([]model.ErrorEntry(nil), r.staged...)
	failed := r.failed
	r.mu.Unlock()

	if id == "" {
		return validationErr("rejection session is not open")
	}
	if len(entries) == 0 {
		return validationErr("no error messages staged")
	}

	if err := r.store.Reject(ctx, id, entries); err != nil {
		return err
	}

	if _, err := r.store.FetchAll(ctx); err != nil {
		r.logger.Warn("refresh after rejection failed", zap.String("id", id), zap.Error(err))
	}

	r.Close()

	// Reject and the refresh clear the last error; keep the upload failure visible.
	if failed > 0 {
		r.store.recordError("upload image", wrapOp("upload image",
			fmt.Errorf("%w: %d image(s) not attached", ErrPartialUpload, failed)), zap.String("id", id))
	}
	return nil
}

func (r *RejectionSession) upload(ctx context.Context, image *model.ImageFile) *string {
	if image == nil || r.uploader == nil {
		return nil
	}
	urls, err := r.uploader.Upload(ctx, []model.ImageFile{*image}, r.folder)
	if err != nil {
		r.mu.Lock()
		r.failed++
		r.mu.Unlock()
		r.store.recordError("upload image", wrapOp("upload image", fmt.Errorf("%w: %w", ErrPartialUpload, err)),
			zap.String("filename", image.Filename))
		return nil
	}
	if len(urls) == 0 || urls[0] == "" {
		return nil
	}
	return stringPtr(urls[0])
}

func stringPtr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
