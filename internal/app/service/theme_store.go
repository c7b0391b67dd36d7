package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/repository"
	"go.uber.org/zap"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// DefaultPalette is the palette used until a user applies another one.
var DefaultPalette = model.Palette{
	Primary:     "#EC4899",
	Secondary:   "#9333EA",
	Primary2:    "#EC4899",
	Secondary2:  "#9333EA",
	Accent:      "#BBF33A",
	Accent2:     "#BBF33A",
	Background:  "#F3F4F6",
	Background2: "#F3F4F6",
	Text:        "#111827",
	Text2:       "#111827",
}

// ThemeDeps groups the collaborators of a ThemeStore.
type ThemeDeps struct {
	Logger *zap.Logger
	Repo   repository.ThemeRepository
	Clock  Clock
}

// ThemeStore manages the shared themes collection and the palette each
// user applied last. Preferences are cached per email once loaded.
type ThemeStore struct {
	logger *zap.Logger
	repo   repository.ThemeRepository
	clock  Clock

	mu    sync.RWMutex
	prefs map[string]model.UserTheme
}

// NewThemeStore returns a ThemeStore backed by the given repository.
func NewThemeStore(deps ThemeDeps) *ThemeStore {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &ThemeStore{
		logger: logger.Named("themes"),
		repo:   deps.Repo,
		clock:  clock,
		prefs:  make(map[string]model.UserTheme),
	}
}

// DefaultTheme returns the built-in theme for email.
func DefaultTheme(email string) model.UserTheme {
	return model.UserTheme{
		UserEmail: email,
		Name:      model.DefaultThemeName,
		Palette:   DefaultPalette,
	}
}

// Authenticated loads the preference of a user who just signed in.
// Failures are logged; the user keeps the default theme.
func (s *ThemeStore) Authenticated(ctx context.Context, email string) {
	if email == "" {
		return
	}
	s.mu.RLock()
	_, ok := s.prefs[email]
	s.mu.RUnlock()
	if ok {
		return
	}
	if _, err := s.Current(ctx, email); err != nil {
		s.logger.Warn("theme preference load failed", zap.String("email", email), zap.Error(err))
	}
}

// Current returns the palette email applied last, or the default theme.
// Anonymous callers always get the default.
func (s *ThemeStore) Current(ctx context.Context, email string) (model.UserTheme, error) {
	if email == "" {
		return DefaultTheme(""), nil
	}

	s.mu.RLock()
	pref, ok := s.prefs[email]
	s.mu.RUnlock()
	if ok {
		return pref, nil
	}

	loaded, err := s.repo.GetUserTheme(ctx, email)
	switch {
	case errors.Is(err, repository.ErrThemeNotFound):
		pref = DefaultTheme(email)
	case err != nil:
		return model.UserTheme{}, wrapOp("load theme", classify(err))
	default:
		pref = *loaded
	}

	s.mu.Lock()
	s.prefs[email] = pref
	s.mu.Unlock()
	return pref, nil
}

// SavedThemes lists the shared themes followed by the caller's own
// preference when it carries a name.
func (s *ThemeStore) SavedThemes(ctx context.Context, email string) ([]model.Theme, error) {
	themes, err := s.repo.ListThemes(ctx)
	if err != nil {
		return nil, wrapOp("list themes", classify(err))
	}
	if themes == nil {
		themes = []model.Theme{}
	}
	if email == "" {
		return themes, nil
	}

	pref, err := s.repo.GetUserTheme(ctx, email)
	switch {
	case errors.Is(err, repository.ErrThemeNotFound):
		return themes, nil
	case err != nil:
		return nil, wrapOp("list themes", classify(err))
	}
	if pref.Name != "" {
		themes = append(themes, model.Theme{
			ID:         pref.UserEmail,
			Name:       pref.Name,
			Palette:    pref.Palette,
			OwnerEmail: pref.UserEmail,
			UpdatedAt:  pref.UpdatedAt,
			UserTheme:  true,
		})
	}
	return themes, nil
}

// SaveTheme stores the caller's current palette under name in the shared
// collection. The name is trimmed and must not be empty.
func (s *ThemeStore) SaveTheme(ctx context.Context, email, name string) (model.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Theme{}, wrapOp("save theme", validationErr("theme name must not be empty"))
	}

	current, err := s.Current(ctx, email)
	if err != nil {
		return model.Theme{}, wrapOp("save theme", err)
	}

	now := s.clock.Now().UTC()
	theme := model.Theme{
		Name:       name,
		Palette:    current.Palette,
		OwnerEmail: email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateTheme(ctx, &theme); err != nil {
		return model.Theme{}, wrapOp("save theme", classify(err))
	}

	s.logger.Info("theme saved", zap.String("id", theme.ID), zap.String("name", name))
	return theme, nil
}

// Apply makes palette the preference of email. Blank colors fall back to
// the default palette; anything else must be a CSS hex color.
func (s *ThemeStore) Apply(ctx context.Context, email, name string, palette model.Palette) (model.UserTheme, error) {
	if email == "" {
		return model.UserTheme{}, wrapOp("apply theme", validationErr("user email required"))
	}

	defaults := DefaultPalette
	want := defaults.Fields()
	for i, f := range palette.Fields() {
		v := strings.TrimSpace(*f.Value)
		switch {
		case v == "":
			v = *want[i].Value
		case !hexColor.MatchString(v):
			return model.UserTheme{}, wrapOp("apply theme", validationErr("%s: invalid color %q", f.Key, v))
		}
		*f.Value = v
	}

	pref := model.UserTheme{
		UserEmail: email,
		Name:      strings.TrimSpace(name),
		Palette:   palette,
		UpdatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.SaveUserTheme(ctx, &pref); err != nil {
		return model.UserTheme{}, wrapOp("apply theme", classify(err))
	}

	s.mu.Lock()
	s.prefs[email] = pref
	s.mu.Unlock()

	s.logger.Debug("theme applied", zap.String("email", email), zap.String("name", pref.Name))
	return pref, nil
}

// Reset stores the default theme as the preference of email.
func (s *ThemeStore) Reset(ctx context.Context, email string) (model.UserTheme, error) {
	return s.Apply(ctx, email, model.DefaultThemeName, DefaultPalette)
}
