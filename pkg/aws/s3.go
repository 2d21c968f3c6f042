package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is a one-off PUT URL plus the headers the client must send.
type PresignedUpload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// ObjectPresigner issues presigned S3 uploads.
type ObjectPresigner struct {
	presigner *s3.PresignClient
	bucket    string
}

// NewObjectPresigner uses path-style addressing so LocalStack endpoints work.
func NewObjectPresigner(cfg sdkaws.Config, bucket string) *ObjectPresigner {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &ObjectPresigner{presigner: s3.NewPresignClient(client), bucket: bucket}
}

func (p *ObjectPresigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	req, err := p.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for k, v := range req.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return &PresignedUpload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: time.Now().Add(expiry).UTC(),
	}, nil
}
