package storagesvc

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

// s3Storage keeps images in an S3 compatible bucket (AWS, R2, MinIO...).
type s3Storage struct {
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
	baseURL  string
	maxWidth int
}

var _ core.AssetStorage = (*s3Storage)(nil)

func NewS3Storage(conf core.StorageConfig) (core.AssetStorage, error) {
	awsConf := &aws.Config{
		Region:           aws.String(conf.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if conf.Endpoint != "" {
		awsConf.Endpoint = aws.String(conf.Endpoint)
	}
	if conf.AccessKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentials(conf.AccessKey, conf.SecretKey, "")
	}
	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	client := s3.New(sess)
	return &s3Storage{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   conf.Bucket,
		baseURL:  conf.PublicBaseURL,
		maxWidth: conf.MaxImageWidth,
	}, nil
}

func (st *s3Storage) UploadImage(ctx context.Context, upload core.Upload) (core.Asset, error) {
	body, err := PrepareImage(upload, st.maxWidth)
	if err != nil {
		return core.Asset{}, err
	}
	key := objectKey(upload.Filename)
	_, err = st.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(st.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(imageContentType),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return core.Asset{}, errors.Wrap(err, "uploading to bucket")
	}
	return core.Asset{URL: publicURL(st.baseURL, key), FileID: key}, nil
}

func (st *s3Storage) DeleteImage(ctx context.Context, fileID string) error {
	_, err := st.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(fileID),
	})
	return errors.Wrap(err, "deleting from bucket")
}
