package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

const (
	plansKey = "plans:all"
	plansTTL = 10 * time.Minute
)

// PlanSource источник тарифов, обычно хранилище PostgreSQL.
type PlanSource interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
}

// PlanCatalog читает тарифы через кэш. Ошибки Redis не мешают чтению из источника.
type PlanCatalog struct {
	cache  *Cache
	source PlanSource
	log    *slog.Logger
}

// NewPlanCatalog создает каталог тарифов с кэшированием.
func NewPlanCatalog(c *Cache, source PlanSource, log *slog.Logger) *PlanCatalog {
	return &PlanCatalog{cache: c, source: source, log: log}
}

// ListPlans возвращает все тарифы.
func (p *PlanCatalog) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	found, err := p.cache.Get(ctx, plansKey, &plans)
	if err != nil {
		p.log.Warn("plan cache read failed", sl.Err(err))
	}
	if found {
		return plans, nil
	}

	plans, err = p.source.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, plansKey, plans, plansTTL); err != nil {
		p.log.Warn("plan cache write failed", sl.Err(err))
	}
	return plans, nil
}

// GetPlan возвращает тариф по идентификатору.
func (p *PlanCatalog) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	key := "plans:" + strconv.Itoa(id)
	var plan models.Plan
	found, err := p.cache.Get(ctx, key, &plan)
	if err != nil {
		p.log.Warn("plan cache read failed", sl.Err(err), slog.Int("plan_id", id))
	}
	if found {
		return &plan, nil
	}

	got, err := p.source.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, got, plansTTL); err != nil {
		p.log.Warn("plan cache write failed", sl.Err(err), slog.Int("plan_id", id))
	}
	return got, nil
}
