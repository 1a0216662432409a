package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/service"
)

const uploadContentType = "image/png"

// Presigner hands out one-shot POST policies for task images.
type Presigner struct {
	client *minio.Client
	bucket string
	now    func() time.Time
	newID  func() uuid.UUID
}

type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

func NewPresigner(opts Options) (*Presigner, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Presigner{client: client, bucket: opts.Bucket, now: time.Now, newID: uuid.New}, nil
}

// ObjectKey is where an owner's upload lands.
func ObjectKey(ownerID int64, id uuid.UUID) string {
	return fmt.Sprintf("uploads/%d/%s/image.png", ownerID, id)
}

func (p *Presigner) PresignUpload(ctx context.Context, ownerID int64) (*service.UploadTarget, error) {
	key := ObjectKey(ownerID, p.newID())

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(p.bucket); err != nil {
		return nil, fmt.Errorf("set bucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("set key: %w", err)
	}
	if err := policy.SetContentType(uploadContentType); err != nil {
		return nil, fmt.Errorf("set content type: %w", err)
	}
	if err := policy.SetContentLengthRange(0, config.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("set content length: %w", err)
	}
	if err := policy.SetExpires(p.now().UTC().Add(config.PresignExpiry)); err != nil {
		return nil, fmt.Errorf("set expiry: %w", err)
	}

	u, fields, err := p.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign post policy: %w", err)
	}
	return &service.UploadTarget{URL: u.String(), Fields: fields}, nil
}

var _ service.UploadPresigner = (*Presigner)(nil)
