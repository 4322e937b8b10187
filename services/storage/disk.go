package storagesvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

// diskStorage keeps images under a local directory, served by the API under /media.
type diskStorage struct {
	dir      string
	baseURL  string
	maxWidth int
}

var _ core.AssetStorage = (*diskStorage)(nil)

func NewDiskStorage(conf core.StorageConfig) core.AssetStorage {
	return &diskStorage{dir: conf.MediaDir, baseURL: conf.PublicBaseURL, maxWidth: conf.MaxImageWidth}
}

func (st *diskStorage) path(fileID string) (string, error) {
	p := filepath.Join(st.dir, filepath.FromSlash(fileID))
	rel, err := filepath.Rel(st.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.Errorf("invalid file id %q", fileID)
	}
	return p, nil
}

func (st *diskStorage) UploadImage(_ context.Context, upload core.Upload) (core.Asset, error) {
	body, err := PrepareImage(upload, st.maxWidth)
	if err != nil {
		return core.Asset{}, err
	}
	key := objectKey(upload.Filename)
	p, err := st.path(key)
	if err != nil {
		return core.Asset{}, err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return core.Asset{}, errors.Wrap(err, "creating media dir")
	}
	if err = os.WriteFile(p, body.Bytes(), 0o644); err != nil {
		return core.Asset{}, errors.Wrap(err, "writing image")
	}
	return core.Asset{URL: publicURL(st.baseURL, key), FileID: key}, nil
}

func (st *diskStorage) DeleteImage(_ context.Context, fileID string) error {
	p, err := st.path(fileID)
	if err != nil {
		return err
	}
	return errors.Wrap(os.Remove(p), "deleting image")
}
