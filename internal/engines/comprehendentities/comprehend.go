package comprehendentities

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	cfg "github.com/docstreamio/docstream/config"
	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/pkg/logger"
)

// Engine extracts named entities with AWS Comprehend.
type Engine struct {
	client *comprehend.Client
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
		client: comprehend.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

// DetectEntities returns entities for text. Callers cap the input length;
// Comprehend itself rejects oversized payloads.
func (e *Engine) DetectEntities(ctx context.Context, text string) ([]models.Entity, error) {
	result, err := e.client.DetectEntities(ctx, &comprehend.DetectEntitiesInput{
		Text:         &text,
		LanguageCode: types.LanguageCodeEn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect entities: %w", err)
	}

	entities := make([]models.Entity, 0, len(result.Entities))
	for _, ent := range result.Entities {
		entity := models.Entity{Type: string(ent.Type)}
		if ent.Text != nil {
			entity.Text = *ent.Text
		}
		if ent.Score != nil {
			entity.Confidence = float64(*ent.Score)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
