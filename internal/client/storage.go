package client

import (
	"bytes"
	"context"
	"net/url"
	"strings"
)

// Upload stores data under bucket/key and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	var out struct {
		URL string `json:"url"`
	}
	path := "/api/storage/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
	if err := c.send(ctx, "PUT", path, bytes.NewReader(data), contentType, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
