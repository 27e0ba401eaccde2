package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
)

const (
	keyTemplateIndex = "invoice-templates"
	keyTemplate      = "template-%s"
)

type redisRepo struct {
	client *redis.Client
}

// NewRedisRepository keeps each template under its own key and the names in
// a sorted set scored by first save time.
func NewRedisRepository(client *redis.Client) templatedomain.Repository {
	return &redisRepo{client: client}
}

func (r *redisRepo) ListNames(ctx context.Context) ([]string, error) {
	names, err := r.client.ZRange(ctx, keyTemplateIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *redisRepo) FindByName(ctx context.Context, name string) (*templatedomain.Template, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(keyTemplate, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tmpl templatedomain.Template
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *redisRepo) Upsert(ctx context.Context, tmpl *templatedomain.Template) error {
	payload, err := json.Marshal(tmpl)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(keyTemplate, tmpl.Name), payload, 0)
		pipe.ZAddNX(ctx, keyTemplateIndex, redis.Z{
			Score:  float64(tmpl.CreatedAt.UnixMilli()),
			Member: tmpl.Name,
		})
		return nil
	})
	return err
}
