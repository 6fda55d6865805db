package responder

import (
	"errors"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// AssetNotFoundError is returned when a media file cannot be provided
// It is an expected condition, the responder apologizes instead of sending
type AssetNotFoundError struct {
	Name string
}

func (e AssetNotFoundError) Error() string {
	return "asset not found: " + e.Name
}

// AssetOpener resolves a media file by its relative name
type AssetOpener interface {
	Open(name string) (*prismabot.Media, error)
}

// AssetStore reads media files under a root directory
// Files are read at request time, nothing is preloaded
type AssetStore struct {
	root string
}

// NewAssetStore creates an AssetStore rooted at dir
func NewAssetStore(dir string) *AssetStore {
	return &AssetStore{root: dir}
}

// Open reads name relative to the root
// Names leaving the root are reported as not found
func (s *AssetStore) Open(name string) (*prismabot.Media, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(clean) {
		return nil, AssetNotFoundError{Name: name}
	}

	path := filepath.Join(s.root, clean)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, AssetNotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &prismabot.Media{
		ByteContent: prismabot.ByteContent{
			Type:    http.DetectContentType(content),
			Content: content,
		},
		Name: filepath.Base(clean),
	}, nil
}
