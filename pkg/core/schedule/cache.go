package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

// CachedProjector memoises projections keyed on the day and a fingerprint of
// the inputs. Any change to an order or mechanic produces a new key, so
// entries never need invalidating. Cached results are cloned on the way out.
type CachedProjector struct {
	next   SchedulerProjector
	cache  *lru.Cache[string, []model.Appointment]
	logger *zap.Logger
}

var _ SchedulerProjector = (*CachedProjector)(nil)

// NewCachedProjector wraps next with an LRU cache holding size projections
func NewCachedProjector(next SchedulerProjector, size int, logger *zap.Logger) (*CachedProjector, error) {
	cache, err := lru.New[string, []model.Appointment](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create projection cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProjector{next: next, cache: cache, logger: logger}, nil
}

func (c *CachedProjector) ProjectForDay(orders []model.RepairOrderRecord, day time.Time) []model.Appointment {
	return c.lookup("project", orders, nil, day, func() []model.Appointment {
		return c.next.ProjectForDay(orders, day)
	})
}

func (c *CachedProjector) DistributeUnassigned(orders []model.RepairOrderRecord, mechanics []model.Mechanic, day time.Time) []model.Appointment {
	return c.lookup("distribute", orders, mechanics, day, func() []model.Appointment {
		return c.next.DistributeUnassigned(orders, mechanics, day)
	})
}

// Len returns the number of cached projections
func (c *CachedProjector) Len() int {
	return c.cache.Len()
}

func (c *CachedProjector) lookup(op string, orders []model.RepairOrderRecord, mechanics []model.Mechanic, day time.Time, compute func() []model.Appointment) []model.Appointment {
	key, err := fingerprint(op, orders, mechanics, day)
	if err != nil {
		c.logger.Warn("Projection cache bypassed", zap.Error(err))
		return compute()
	}

	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("Projection cache hit", zap.String("op", op), zap.Int("appointments", len(cached)))
		return slices.Clone(cached)
	}

	c.logger.Debug("Projection cache miss", zap.String("op", op))
	result := compute()
	c.cache.Add(key, slices.Clone(result))
	return result
}

type fingerprintInput struct {
	Op        string
	Day       string
	Location  string
	Orders    []model.RepairOrderRecord
	Mechanics []model.Mechanic
}

func fingerprint(op string, orders []model.RepairOrderRecord, mechanics []model.Mechanic, day time.Time) (string, error) {
	raw, err := json.Marshal(fingerprintInput{
		Op:        op,
		Day:       day.Format("2006-01-02"),
		Location:  day.Location().String(),
		Orders:    orders,
		Mechanics: mechanics,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode projection inputs: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
