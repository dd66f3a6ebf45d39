// Package cache holds read-through caches over Redis for catalog data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lms-backend/internal/model"
)

// CourseTTL bounds how long a preview can outlive a missed eviction.
const CourseTTL = 7 * 24 * time.Hour

// Courses caches course previews under "course:<id>".
type Courses struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewCourses(rdb redis.Cmdable) *Courses { return &Courses{rdb: rdb, ttl: CourseTTL} }

func courseKey(id string) string { return "course:" + id }

// Get returns the cached preview, if any.
func (c *Courses) Get(ctx context.Context, id string) (model.Course, bool, error) {
	b, err := c.rdb.Get(ctx, courseKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Course{}, false, nil
	}
	if err != nil {
		return model.Course{}, false, fmt.Errorf("course cache: get %s: %w", id, err)
	}
	var out model.Course
	if err := json.Unmarshal(b, &out); err != nil {
		return model.Course{}, false, fmt.Errorf("course cache: decode %s: %w", id, err)
	}
	return out, true, nil
}

// Set stores the preview of course.
func (c *Courses) Set(ctx context.Context, course model.Course) error {
	b, err := json.Marshal(course.Preview())
	if err != nil {
		return fmt.Errorf("course cache: encode %s: %w", course.ID, err)
	}
	if err := c.rdb.Set(ctx, courseKey(course.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("course cache: set %s: %w", course.ID, err)
	}
	return nil
}

// Evict drops the cached preview.
func (c *Courses) Evict(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, courseKey(id)).Err(); err != nil {
		return fmt.Errorf("course cache: evict %s: %w", id, err)
	}
	return nil
}
