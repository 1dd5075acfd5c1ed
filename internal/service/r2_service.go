package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/socialqueue/pipeline/configs"
)

// MediaStorage is the staging area between extraction and publish: media is
// copied out of its origin into durable storage and served to the platform
// through short-lived signed URLs, decoupling origin availability from
// publish timing.
type MediaStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

type R2Service struct {
	config  cfg.Config
	client  *s3.Client
	presign *s3.PresignClient
}

func NewR2Service(c cfg.Config) (*R2Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID))
	})

	return &R2Service{
		config:  c,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

func (r *R2Service) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *R2Service) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return req.URL, nil
}

// DeletePrefix removes every staged object under prefix. Staged media for
// one post shares a {userID}/{pageID} prefix, so cleanup is a list+delete.
func (r *R2Service) DeletePrefix(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.config.R2.BucketName),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		for _, obj := range page.Contents {
			_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(r.config.R2.BucketName),
				Key:    obj.Key,
			})
			if err != nil {
				slog.Info(err.Error())
				return err
			}
		}
	}
	return nil
}
