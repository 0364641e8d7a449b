package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 stores objects in one S3 bucket; the logical bucket becomes a key prefix.
// Credentials come from the standard AWS environment and profile chain.
type S3 struct {
	s3     *s3.S3
	bucket string
	region string
}

// NewS3 returns an S3 store for bucket in region.
func NewS3(region, bucket string) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	return &S3{s3: s3.New(sess), bucket: bucket, region: region}, nil
}

func (c *S3) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	if err := CheckKey(bucket, key); err != nil {
		return err
	}

	// PutObject needs a seekable body; photos are small enough to buffer.
	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading object: %w", err)
	}

	_, err = c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(bucket + "/" + key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws.Int64(int64(len(buf))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3: %w", err)
	}
	return nil
}

func (c *S3) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s/%s", c.bucket, c.region, bucket, key)
}
