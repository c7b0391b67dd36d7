package service

import (
	"context"
	"testing"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	UploadFunc func(ctx context.Context, files []model.ImageFile, folder string) ([]string, error)
	calls      int
	folders    []string
}

func (f *fakeUploader) Upload(ctx context.Context, files []model.ImageFile, folder string) ([]string, error) {
	f.calls++
	f.folders = append(f.folders, folder)
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, files, folder)
	}
	urls := make([]string, len(files))
	for i, file := range files {
		urls[i] = "https://img.example.com/" + file.Filename
	}
	return urls, nil
}

func TestRejectionSessionCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.seed(t, model.URLRecord{Original: "https://a.example.com"})
	uploader := &fakeUploader{}

	session := NewRejectionSession(env.store, uploader, "error-images")
	session.Open(id)

	require.NoError(t, session.Stage(ctx, TextOnly("  broken link  ")))
	require.NoError(t, session.Stage(ctx, WithImageURL("see screenshot", "https://img.example.com/a.png", "blob:a")))
	require.NoError(t, session.Stage(ctx, WithRawImage("raw", model.ImageFile{Filename: "b.png", Data: []byte{1}}, "blob:b")))
	require.Len(t, session.Staged(), 3)

	require.NoError(t, session.Commit(ctx))

	assert.Empty(t, session.TargetID())
	assert.Empty(t, session.Staged())
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, []string{"error-images"}, uploader.folders)

	rec, ok := env.store.URL(id)
	require.True(t, ok)
	assert.Equal(t, model.StatusRejected, rec.Status)
	require.Len(t, rec.ErrorMessages, 3)

	assert.Equal(t, "broken link", rec.ErrorMessages[0].Text)
	assert.Nil(t, rec.ErrorMessages[0].ImageURL)
	assert.Nil(t, rec.ErrorMessages[0].ImagePreview)

	require.NotNil(t, rec.ErrorMessages[1].ImageURL)
	assert.Equal(t, "https://img.example.com/a.png", *rec.ErrorMessages[1].ImageURL)
	require.NotNil(t, rec.ErrorMessages[1].ImagePreview)
	assert.Equal(t, "blob:a", *rec.ErrorMessages[1].ImagePreview)

	require.NotNil(t, rec.ErrorMessages[2].ImageURL)
	assert.Equal(t, "https://img.example.com/b.png", *rec.ErrorMessages[2].ImageURL)
	assert.True(t, rec.ErrorMessages[2].Timestamp.After(rec.ErrorMessages[0].Timestamp))
}

func TestRejectionSessionSkipsBlankText(t *testing.T) {
	env := newTestEnv(t)
	session := NewRejectionSession(env.store, nil, "")
	session.Open("id")

	err := session.Stage(context.Background(), TextOnly("   "))
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, session.Staged())
}

func TestRejectionSessionUploadFailureKeepsText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.seed(t, model.URLRecord{Original: "https://a.example.com"})
	uploader := &fakeUploader{
		UploadFunc: func(context.Context, []model.ImageFile, string) ([]string, error) {
			return nil, errBoom
		},
	}

	session := NewRejectionSession(env.store, uploader, "error-images")
	session.Open(id)
	require.NoError(t, session.Stage(ctx, WithRawImage("blurry", model.ImageFile{Filename: "x.png", Data: []byte{1}}, "blob:x")))

	staged := session.Staged()
	require.Len(t, staged, 1)
	assert.Nil(t, staged[0].ImageURL)
	require.NotNil(t, staged[0].ImagePreview)
	assert.Equal(t, "blob:x", *staged[0].ImagePreview)
	assert.Contains(t, env.store.LastError(), "upload image")

	require.NoError(t, session.Commit(ctx))
	assert.Equal(t, 1, session.UploadFailures())
	assert.Contains(t, env.store.LastError(), ErrPartialUpload.Error())

	rec, ok := env.store.URL(id)
	require.True(t, ok)
	require.Len(t, rec.ErrorMessages, 1)
	assert.Equal(t, "blurry", rec.ErrorMessages[0].Text)
}

func TestRejectionSessionUploadWithoutURL(t *testing.T) {
	env := newTestEnv(t)
	uploader := &fakeUploader{
		UploadFunc: func(context.Context, []model.ImageFile, string) ([]string, error) {
			return []string{""}, nil
		},
	}

	session := NewRejectionSession(env.store, uploader, "f")
	session.Open("id")
	require.NoError(t, session.Stage(context.Background(), WithRawImage("x", model.ImageFile{Data: []byte{1}}, "")))

	staged := session.Staged()
	require.Len(t, staged, 1)
	assert.Nil(t, staged[0].ImageURL)
	assert.Nil(t, staged[0].ImagePreview)
	assert.Zero(t, session.UploadFailures())
}

func TestRejectionSessionUnstage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewRejectionSession(env.store, nil, "")
	session.Open("id")
	require.NoError(t, session.Stage(ctx, TextOnly("a")))
	require.NoError(t, session.Stage(ctx, TextOnly("b")))
	require.NoError(t, session.Stage(ctx, TextOnly("c")))

	session.Unstage(5)
	session.Unstage(-1)
	require.Len(t, session.Staged(), 3)

	session.Unstage(1)
	staged := session.Staged()
	require.Len(t, staged, 2)
	assert.Equal(t, "a", staged[0].Text)
	assert.Equal(t, "c", staged[1].Text)
}

func TestRejectionSessionCommitRequirements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewRejectionSession(env.store, nil, "")

	require.ErrorIs(t, session.Commit(ctx), ErrValidation)

	session.Open("id")
	require.ErrorIs(t, session.Commit(ctx), ErrValidation)
}

func TestRejectionSessionCommitFailureKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.seed(t, model.URLRecord{Original: "https://a.example.com"})

	session := NewRejectionSession(env.store, nil, "")
	session.Open(id)
	require.NoError(t, session.Stage(ctx, TextOnly("a")))

	env.urls.updateErr = errBoom
	require.ErrorIs(t, session.Commit(ctx), ErrUnavailable)
	assert.Equal(t, id, session.TargetID())
	assert.Len(t, session.Staged(), 1)

	env.urls.updateErr = nil
	require.NoError(t, session.Commit(ctx))
	assert.Empty(t, session.TargetID())
}

func TestRejectionSessionOpenAndClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewRejectionSession(env.store, nil, "")

	session.Open("a")
	require.NoError(t, session.Stage(ctx, TextOnly("x")))
	session.Open("b")
	assert.Equal(t, "b", session.TargetID())
	assert.Empty(t, session.Staged())

	require.NoError(t, session.Stage(ctx, TextOnly("y")))
	session.Close()
	assert.Empty(t, session.TargetID())
	assert.Empty(t, session.Staged())
}
