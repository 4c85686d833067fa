package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"calmspace/internal/domain"
)

var ErrAssetMissing = errors.New("ambient loop asset is missing")

// DefaultBaseName is the bundled rain loop shipped with the app.
const DefaultBaseName = "rain_from_indoors_perfect_loop"

var defaultExtensions = []string{".mp3", ".ogg", ".wav"}

// FileProvider resolves the single ambient loop from the filesystem.
type FileProvider struct {
	path string
}

// NewFileProvider uses path when set, otherwise the first existing default
// under soundsDir.
func NewFileProvider(path string, soundsDir string) *FileProvider {
	path = strings.TrimSpace(path)
	if path == "" {
		path = firstExisting(DefaultCandidates(soundsDir)...)
	}
	return &FileProvider{path: path}
}

// DefaultCandidates lists the default asset locations in priority order.
func DefaultCandidates(soundsDir string) []string {
	candidates := make([]string, 0, len(defaultExtensions))
	for _, ext := range defaultExtensions {
		candidates = append(candidates, filepath.Join(soundsDir, DefaultBaseName+ext))
	}
	return candidates
}

// Path returns the configured asset path.
func (p *FileProvider) Path() string {
	return p.path
}

func (p *FileProvider) Resolve(_ context.Context) (domain.AssetRef, error) {
	if p.path == "" {
		return domain.AssetRef{}, fmt.Errorf("%w: no asset path configured", ErrAssetMissing)
	}
	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.AssetRef{}, fmt.Errorf("%w: %s", ErrAssetMissing, p.path)
		}
		return domain.AssetRef{}, fmt.Errorf("failed to inspect asset %q: %w", p.path, err)
	}
	if info.IsDir() {
		return domain.AssetRef{}, fmt.Errorf("%w: %s is a directory", ErrAssetMissing, p.path)
	}
	return domain.AssetRef{Name: DisplayName(p.path), Path: p.path}, nil
}

// DisplayName turns a file name like rain_from_indoors.mp3 into "Rain From Indoors".
func DisplayName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
