package opener

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

type S3Client interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

type S3Opener struct {
	Client S3Client
	log    logrus.FieldLogger
}

func NewS3Opener(cli S3Client, log logrus.FieldLogger) *S3Opener {
	return &S3Opener{Client: cli, log: log}
}

func (s *S3Opener) Open(ctx context.Context, bucket, key string) (io.ReadCloser, ports.Meta, error) {
	lg := s.log.WithFields(logrus.Fields{"bucket": bucket, "key": key})
	lg.Debug("[OPENER][S3][START]")

	st, err := s.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		lg.WithError(err).Error("[OPENER][S3][ERR] stat")
		return nil, ports.Meta{}, fmt.Errorf("s3 stat: %w", err)
	}
	obj, err := s.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		lg.WithError(err).Error("[OPENER][S3][ERR] get")
		return nil, ports.Meta{}, fmt.Errorf("s3 get: %w", err)
	}

	lg.WithFields(logrus.Fields{"content_type": st.ContentType, "size": st.Size}).Info("[OPENER][S3][OK]")
	return obj, ports.Meta{
		Source:      "s3",
		ContentType: st.ContentType,
		Size:        st.Size,
		Bucket:      bucket,
		Key:         key,
	}, nil
}
