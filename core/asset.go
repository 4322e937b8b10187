package core

import (
	"context"
	"io"
)

type (
	// Upload is an image submitted by a client.
	Upload struct {
		Filename    string
		ContentType string
		Size        int64
		Body        io.Reader
	}

	// Asset is a stored file, addressed publicly by URL and internally by FileID.
	Asset struct {
		URL    string `json:"url"`
		FileID string `json:"file_id"`
	}

	// AssetStorage is any service that can store images.
	AssetStorage interface {
		UploadImage(ctx context.Context, upload Upload) (Asset, error)
		DeleteImage(ctx context.Context, fileID string) error
	}
)
