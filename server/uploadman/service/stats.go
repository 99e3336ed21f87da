package service

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const (
	statsUploadsKey = "uploadman:uploads:count"
	statsBytesKey   = "uploadman:uploads:bytes"
)

// StatsService keeps running upload counters in redis for the /stats endpoint.
type StatsService struct {
	redis *redis.Client
}

func NewStatsService(client *redis.Client) *StatsService {
	return &StatsService{redis: client}
}

func (s *StatsService) RecordUpload(ctx context.Context, size int64) error {
	pipe := s.redis.TxPipeline()
	pipe.Incr(ctx, statsUploadsKey)
	pipe.IncrBy(ctx, statsBytesKey, size)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *StatsService) Totals(ctx context.Context) (uploads, bytes int64, err error) {
	uploads, err = s.redis.Get(ctx, statsUploadsKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, err
	}
	bytes, err = s.redis.Get(ctx, statsBytesKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, err
	}
	return uploads, bytes, nil
}
