package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mi-raf/comment-moderation/internal/models"
)

const dateLayout = "2006-01-02"

type (
	CommentSource interface {
		ListAllComments(ctx context.Context) (map[int64][]*models.Comment, error)
	}

	// Aggregator counts comments per creation day. Accepted comments go to
	// CreatedCount, blocked ones to BlockedCount.
	Aggregator struct {
		src CommentSource
	}
)

func NewAggregator(src CommentSource) *Aggregator {
	return &Aggregator{src: src}
}

func (a *Aggregator) DailyBreakdown(ctx context.Context, dateFrom, dateTo string) ([]models.DailyBreakdown, error) {
	from, err := time.Parse(dateLayout, dateFrom)
	if err != nil {
		return nil, fmt.Errorf("date_from %q, use YYYY-MM-DD: %w", dateFrom, models.ErrInvalidRange)
	}
	to, err := time.Parse(dateLayout, dateTo)
	if err != nil {
		return nil, fmt.Errorf("date_to %q, use YYYY-MM-DD: %w", dateTo, models.ErrInvalidRange)
	}
	if from.After(to) {
		return nil, fmt.Errorf("date_from is after date_to: %w", models.ErrInvalidRange)
	}

	all, err := a.src.ListAllComments(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*models.DailyBreakdown)
	for _, comments := range all {
		for _, c := range comments {
			t := c.CreatedAt.UTC()
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if day.Before(from) || day.After(to) {
				continue
			}
			key := day.Format(dateLayout)
			b, ok := buckets[key]
			if !ok {
				b = &models.DailyBreakdown{Date: key}
				buckets[key] = b
			}
			switch c.Status {
			case models.StatusActive:
				b.CreatedCount++
			case models.StatusBlocked:
				b.BlockedCount++
			}
		}
	}

	res := make([]models.DailyBreakdown, 0, len(buckets))
	for _, b := range buckets {
		res = append(res, *b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res, nil
}
