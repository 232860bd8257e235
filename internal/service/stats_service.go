package service

import (
	"context"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
)

type StatsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

func (s *StatsService) GetStats(ctx context.Context) (*models.Stats, error) {
	ctx, finish := observability.StartSpan(ctx, "StatsService.GetStats")
	stats, err := s.statsRepo.Snapshot(ctx)
	finish(err)
	return stats, err
}
