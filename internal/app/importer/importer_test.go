package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sifan077/LinkDesk/internal/app/repository"
	"github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
urls:
  - name: Shop
    original: https://shop.example.com/x
    site_name: Example Shop
  - name: Empty
    original: "   "
  - name: Blog
    original: https://blog.example.com
`

type mockAdder struct {
	AddFunc func(ctx context.Context, input service.AddURLInput) (string, error)
}

func (m *mockAdder) Add(ctx context.Context, input service.AddURLInput) (string, error) {
	return m.AddFunc(ctx, input)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.URLs, 3)
	assert.Equal(t, Entry{Name: "Shop", Original: "https://shop.example.com/x", SiteName: "Example Shop"}, f.URLs[0])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("urls: [unterminated"))
	assert.Error(t, err)
}

func TestRunAgainstStore(t *testing.T) {
	store := service.NewModerationStore(service.StoreDeps{
		URLs:     repository.NewMemoryURLRepository(),
		Settings: repository.NewMemorySettingRepository(),
	})
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	res, err := Run(context.Background(), store, f, nil)
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Failed)

	assert.Equal(t, 2, store.Count())
	assert.Equal(t, []string{"blog.example.com", "shop.example.com"}, store.DomainOrder())
}

func TestRunCollectsFailures(t *testing.T) {
	calls := 0
	adder := &mockAdder{
		AddFunc: func(_ context.Context, input service.AddURLInput) (string, error) {
			calls++
			if input.Name == "Shop" {
				return "", errors.New("store unavailable")
			}
			return "id-" + input.Name, nil
		},
	}
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	res, err := Run(context.Background(), adder, f, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"id-Blog"}, res.Created)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Position)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adder := &mockAdder{
		AddFunc: func(context.Context, service.AddURLInput) (string, error) {
			t.Fatal("Add should not be called")
			return "", nil
		},
	}

	_, err := Run(ctx, adder, &File{URLs: []Entry{{Original: "https://a.example.com"}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
