package services

import (
	"context"

	"gorm.io/gorm"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

// dashboardService aggregates record counts for the dashboard.
type dashboardService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewDashboardService creates a new DashboardServicer. store may be nil.
func NewDashboardService(db *gorm.DB, store *cache.Store) DashboardServicer {
	return &dashboardService{db: db, cache: store}
}

type countQuery struct {
	query *gorm.DB
	dest  *int64
}

// Overview counts investors, calculators, properties, investments and
// analyses. An empty ownerID counts everything and the result is cached until
// a service changes one of the counts. Otherwise calculators, investments and
// analyses are limited to that owner's calculators.
func (s *dashboardService) Overview(ownerID string) (*DashboardOverview, error) {
	if ownerID != "" {
		return s.ownerOverview(ownerID)
	}

	ctx := context.Background()
	var overview DashboardOverview
	if s.cache.Get(ctx, cache.KeyDashboardOverview, &overview) {
		return &overview, nil
	}

	err := runCounts([]countQuery{
		{s.db.Model(&models.User{}).Where("role = ?", models.RoleInvestor), &overview.Investors},
		{s.db.Model(&models.Calculator{}), &overview.Calculators},
		{s.db.Model(&models.Property{}), &overview.Properties},
		{s.db.Model(&models.Investment{}), &overview.Investments},
		{s.db.Model(&models.Analysis{}), &overview.Analyses},
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.KeyDashboardOverview, overview)
	return &overview, nil
}

func (s *dashboardService) ownerOverview(ownerID string) (*DashboardOverview, error) {
	owned := s.db.Model(&models.Calculator{}).Select("id").Where("user_id = ?", ownerID)

	var overview DashboardOverview
	err := runCounts([]countQuery{
		{s.db.Model(&models.Calculator{}).Where("user_id = ?", ownerID), &overview.Calculators},
		{s.db.Model(&models.Property{}), &overview.Properties},
		{s.db.Model(&models.Investment{}).Where("calculator_id IN (?)", owned), &overview.Investments},
		{s.db.Model(&models.Analysis{}).Where("calculator_id IN (?)", owned), &overview.Analyses},
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

func runCounts(counts []countQuery) error {
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
