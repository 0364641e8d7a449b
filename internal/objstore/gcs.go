package objstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in one Cloud Storage bucket; the logical bucket becomes a key prefix.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS returns a GCS store. An empty credentialsFile uses application default credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	if err := CheckKey(bucket, key); err != nil {
		return err
	}

	w := g.client.Bucket(g.bucket).Object(bucket + "/" + key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("uploading to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("uploading to gcs: %w", err)
	}
	return nil
}

func (g *GCS) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s/%s", g.bucket, bucket, key)
}

// Close releases the client.
func (g *GCS) Close() error { return g.client.Close() }
