package services

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/utils"
)

// MetricsService maintains the per-day sales rollup and pushes live
// dashboard metrics to connected admin sessions.
type MetricsService struct {
	db   *gorm.DB
	cron *cron.Cron
}

// NewMetricsService creates the service with an unstarted scheduler.
func NewMetricsService(db *gorm.DB) *MetricsService {
	return &MetricsService{
		db:   db,
		cron: cron.New(),
	}
}

// Start registers and starts the scheduled jobs: the daily rollup of
// yesterday's sales and a periodic admin dashboard broadcast.
func (s *MetricsService) Start() error {
	if _, err := s.cron.AddFunc("@daily", func() {
		yesterday := time.Now().AddDate(0, 0, -1)
		if err := s.RollupDay(yesterday); err != nil {
			utils.Logger().Error("sales metrics rollup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@every 1m", func() {
		s.BroadcastDashboardMetrics()
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *MetricsService) Stop() {
	<-s.cron.Stop().Done()
}

// RollupDay upserts the SalesMetric row for the given calendar day.
func (s *MetricsService) RollupDay(day time.Time) error {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var row struct {
		Revenue float64
		Orders  int64
	}
	err := s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(pricing_total), 0) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("order_status <> ?", models.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return err
	}

	var newCustomers int64
	if err := s.db.Model(&models.User{}).
		Where("role = ?", "customer").
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&newCustomers).Error; err != nil {
		return err
	}

	avg := 0.0
	if row.Orders > 0 {
		avg = row.Revenue / float64(row.Orders)
	}

	metric := models.SalesMetric{
		Date:              start,
		TotalRevenue:      row.Revenue,
		TotalOrders:       int(row.Orders),
		AverageOrderValue: avg,
		NewCustomers:      int(newCustomers),
	}

	var existing models.SalesMetric
	err = s.db.Where("date = ?", start).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&metric).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&existing).Updates(map[string]interface{}{
		"total_revenue":       metric.TotalRevenue,
		"total_orders":        metric.TotalOrders,
		"average_order_value": metric.AverageOrderValue,
		"new_customers":       metric.NewCustomers,
	}).Error
}

// BroadcastDashboardMetrics pushes today's headline numbers to the
// admin room. Missing realtime service (tests) is a no-op.
func (s *MetricsService) BroadcastDashboardMetrics() {
	rt := Realtime()
	if rt == nil {
		return
	}

	today := time.Now()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var todayOrders int64
	if err := s.db.Model(&models.Order{}).Where("created_at >= ?", start).Count(&todayOrders).Error; err != nil {
		utils.Logger().Warn("failed to count today's orders", zap.Error(err))
		return
	}

	var todayRevenue float64
	if err := s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(pricing_total), 0)").
		Where("created_at >= ?", start).
		Scan(&todayRevenue).Error; err != nil {
		utils.Logger().Warn("failed to sum today's revenue", zap.Error(err))
		return
	}

	rt.EmitToAdmins("dashboard-metrics", map[string]interface{}{
		"today_orders":  todayOrders,
		"today_revenue": todayRevenue,
		"active_users":  rt.ClientCount(),
		"timestamp":     time.Now(),
	})
}
