package storagesvc

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core"
)

func pngUpload(t *testing.T, name string, width, height int) core.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, x%height, color.RGBA{R: 200, A: 255})
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return core.Upload{Filename: name, ContentType: "image/png", Size: int64(buf.Len()), Body: buf}
}

func TestPrepareImage(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		height    int
		wantWidth int
	}{
		{name: "downscaled", width: 2000, height: 500, wantWidth: 1280},
		{name: "kept", width: 640, height: 480, wantWidth: 640},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := PrepareImage(pngUpload(t, "a.png", tt.width, tt.height), 1280)
			require.NoError(t, err)
			img, format, err := image.Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantWidth, img.Bounds().Dx())
			assert.Equal(t, tt.height*tt.wantWidth/tt.width, img.Bounds().Dy())
		})
	}

	_, err := PrepareImage(core.Upload{Filename: "a.png", Body: strings.NewReader("not an image")}, 1280)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestObjectKey(t *testing.T) {
	key := objectKey("../My Photo (1).PNG")
	assert.True(t, strings.HasPrefix(key, imageFolder+"/"), key)
	assert.True(t, strings.HasSuffix(key, "-My_Photo_1.jpg"), key)
	assert.NotEqual(t, key, objectKey("../My Photo (1).PNG"))
	assert.True(t, strings.HasSuffix(objectKey("???"), "-photo.jpg"))
}

func TestDiskStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := NewDiskStorage(core.StorageConfig{MediaDir: dir, PublicBaseURL: "http://localhost:5000/media/", MaxImageWidth: 100})

	asset, err := st.UploadImage(ctx, pngUpload(t, "board.png", 300, 30))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/media/"+asset.FileID, asset.URL)

	p := filepath.Join(dir, filepath.FromSlash(asset.FileID))
	f, err := os.Open(p)
	require.NoError(t, err)
	img, err := imaging.Decode(f)
	_ = f.Close()
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	require.NoError(t, st.DeleteImage(ctx, asset.FileID))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, st.DeleteImage(ctx, asset.FileID), "already deleted")
	assert.Error(t, st.DeleteImage(ctx, "../../etc/passwd"))
}

type fakeS3 struct {
	s3iface.S3API
	deleted []string
	err     error
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakeUploader struct {
	inputs []*s3manager.UploadInput
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.inputs = append(f.inputs, in)
	return &s3manager.UploadOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	client, uploader := &fakeS3{}, &fakeUploader{}
	st := &s3Storage{client: client, uploader: uploader, bucket: "doubtroom", baseURL: "https://cdn.test", maxWidth: 1280}

	asset, err := st.UploadImage(ctx, pngUpload(t, "q.png", 50, 50))
	require.NoError(t, err)
	require.Len(t, uploader.inputs, 1)
	in := uploader.inputs[0]
	assert.Equal(t, "doubtroom", aws.StringValue(in.Bucket))
	assert.Equal(t, asset.FileID, aws.StringValue(in.Key))
	assert.Equal(t, imageContentType, aws.StringValue(in.ContentType))
	assert.Equal(t, "https://cdn.test/"+asset.FileID, asset.URL)

	require.NoError(t, st.DeleteImage(ctx, asset.FileID))
	assert.Equal(t, []string{asset.FileID}, client.deleted)

	client.err = errors.New("access denied")
	assert.Error(t, st.DeleteImage(ctx, asset.FileID))
}

func TestNew(t *testing.T) {
	st, err := New(core.StorageConfig{Driver: "disk", MediaDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &diskStorage{}, st)

	_, err = New(core.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
