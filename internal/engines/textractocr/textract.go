package textractocr

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/docstreamio/docstream/config"
	"github.com/docstreamio/docstream/pkg/logger"
)

// Engine recognizes document text with AWS Textract, referencing the stored
// object directly instead of shipping bytes through the worker.
type Engine struct {
	client *textract.Client
	logger logger.Logger
}

func New(ctx context.Context, log logger.Logger) (*Engine, error) {
	conf := cfg.Get()
	creds := credentials.NewStaticCredentialsProvider(
		conf.AWS.AccessKey,
		conf.AWS.SecretKey,
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(conf.AWS.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &Engine{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

// DetectDocumentText returns the recognized LINE blocks in reading order.
func (e *Engine) DetectDocumentText(ctx context.Context, bucket, key string) ([]string, error) {
	result, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: &bucket,
				Name:   &key,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect document text: %w", err)
	}

	var lines []string
	for _, block := range result.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}

	e.logger.Info("Text detection completed",
		logger.String("bucket", bucket),
		logger.String("key", key),
		logger.Int("lines", len(lines)),
	)
	return lines, nil
}
