// Package storagesvc stores the images attached to questions.
package storagesvc

import (
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

// Drivers
const (
	DriverS3   = "s3"
	DriverDisk = "disk"
)

// New returns the asset storage selected by conf.Driver: s3 or disk.
func New(conf core.StorageConfig) (core.AssetStorage, error) {
	switch conf.Driver {
	case DriverS3:
		return NewS3Storage(conf)
	case DriverDisk, "":
		return NewDiskStorage(conf), nil
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Driver)
}
