package mcp

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
)

func parseDays(days, fallback, limit int) (int, error) {
	if days == 0 {
		return fallback, nil
	}
	if days < 1 || days > limit {
		return 0, fmt.Errorf("days must be within 1..%d", limit)
	}
	return days, nil
}

func dayRange(date string, days int, loc *time.Location) (time.Time, time.Time, error) {
	start, err := cli.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, days), nil
}

func toDTOs(blocks []*domain.ScheduleBlock) []queries.BlockDTO {
	out := make([]queries.BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, queries.ToBlockDTO(b))
	}
	return out
}
