package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/certilote/certify-engine/internal/domain"
)

const logCacheTTL = 5 * time.Minute

// LogCache keeps assembled evaluation certificates in Redis so repeated log
// reads for the same lote skip the database joins. A miss returns
// (nil, false, nil).
type LogCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewLogCache(client *goredis.Client) *LogCache {
	return &LogCache{client: client, ttl: logCacheTTL}
}

func (c *LogCache) Get(ctx context.Context, loteID int64) (*domain.Certificado, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	payload, err := c.client.Get(ctx, logCacheKey(loteID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read log cache: %w", err)
	}

	var certificado domain.Certificado
	if err := json.Unmarshal(payload, &certificado); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached certificado: %w", err)
	}
	return &certificado, true, nil
}

func (c *LogCache) Set(ctx context.Context, certificado *domain.Certificado) error {
	if c == nil || c.client == nil || certificado == nil {
		return nil
	}

	payload, err := json.Marshal(certificado)
	if err != nil {
		return fmt.Errorf("failed to encode certificado for cache: %w", err)
	}
	return c.client.Set(ctx, logCacheKey(certificado.LoteID), payload, c.ttl).Err()
}

func logCacheKey(loteID int64) string {
	return fmt.Sprintf("evallog:lote:%d", loteID)
}
