package port

import (
	"context"
	"io"
)

// StoredObject identifies one object in the intake bucket.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified int64
}

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage abstracts the object store holding incoming invoice files.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	ListPrefix(ctx context.Context, bucket, prefix string) ([]StoredObject, error)
	Delete(ctx context.Context, bucket, key string) error
}
