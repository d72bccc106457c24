package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/arjndr/postpilot/configs"
)

// PublishReceipt is the JSON document archived to object storage after each
// successful publish.
type PublishReceipt struct {
	PostID   string    `json:"post_id,omitempty"`
	UserID   int64     `json:"user_id"`
	Items    []string  `json:"items"`
	TweetIDs []string  `json:"tweet_ids"`
	PostedAt time.Time `json:"posted_at"`
}

type ReceiptArchiver interface {
	Archive(ctx context.Context, receipt *PublishReceipt) error
}

type ArchiveService struct {
	config cfg.Config
}

func NewArchiveService(cfg cfg.Config) *ArchiveService {
	return &ArchiveService{config: cfg}
}

func (r *ArchiveService) r2Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

// Archive uploads the receipt to R2. Callers treat failures as best-effort;
// the publish outcome is already durable before this runs.
func (r *ArchiveService) Archive(ctx context.Context, receipt *PublishReceipt) error {
	body, err := json.Marshal(receipt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	key := fmt.Sprintf("receipts/%d/%s.json", receipt.UserID, receipt.PostID)
	if receipt.PostID == "" {
		key = fmt.Sprintf("receipts/%d/immediate-%d.json", receipt.UserID, receipt.PostedAt.UnixNano())
	}

	client, err := r.r2Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}

	_, err = client.PutObject(ctx, input)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
