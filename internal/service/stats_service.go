package service

import (
	"context"
	"log/slog"
	"time"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/repository"
	"donetasker/internal/timeutil"
)

const DefaultStatsRange = "24h"

var statsRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"all": 0,
}

type StatsService struct {
	tasks  *repository.TaskRepository
	timer  *TimerService
	logger *slog.Logger
}

type CompletionStats struct {
	Range        string  `json:"range"`
	Count        int     `json:"count"`
	AverageHours float64 `json:"averageHours"`
	Average      string  `json:"average"`
}

func NewStatsService(tasks *repository.TaskRepository, timer *TimerService, logger *slog.Logger) *StatsService {
	return &StatsService{tasks: tasks, timer: timer, logger: loggerOrDefault(logger)}
}

// Completion reports how many accessible tasks were completed within the range
// and how long they took on average from creation.
func (s *StatsService) Completion(ctx context.Context, userID, rangeKey string) (*CompletionStats, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	if rangeKey == "" {
		rangeKey = DefaultStatsRange
	}
	window, ok := statsRanges[rangeKey]
	if !ok {
		return nil, apperrors.BadRequest("invalid_range", "range must be one of 24h, 7d, 30d, all")
	}

	var since *time.Time
	if window > 0 {
		from := s.timer.clock.Now().UTC().Add(-window)
		since = &from
	}

	tasks, err := s.tasks.ListCompletedSince(ctx, userID, since)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "completion_stats", "", err)
	}

	stats := SummarizeCompletion(tasks)
	stats.Range = rangeKey
	return &stats, nil
}

// SummarizeCompletion averages completed_at - created_at in hours over completed tasks.
func SummarizeCompletion(tasks []model.Task) CompletionStats {
	var stats CompletionStats
	var totalHours float64
	for _, task := range tasks {
		if task.CompletedAt == nil {
			continue
		}
		totalHours += timeutil.Between(task.CreatedAt, *task.CompletedAt).HoursFloat()
		stats.Count++
	}
	if stats.Count > 0 {
		stats.AverageHours = totalHours / float64(stats.Count)
	}
	stats.Average = timeutil.FormatDuration(stats.AverageHours)
	return stats
}
