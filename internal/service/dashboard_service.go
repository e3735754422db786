package service

import (
	"time"

	"smartretail-pos/internal/repository"
)

// DashboardStats is the overview block shown on the home screen.
type DashboardStats struct {
	ProductCount     int64 `json:"product_count"`
	LowStockCount    int64 `json:"low_stock_count"`
	TransactionCount int64 `json:"transaction_count"`
	TotalRevenue     int64 `json:"total_revenue"`
	TodayRevenue     int64 `json:"today_revenue"`
	TodayCount       int64 `json:"today_transaction_count"`
	PendingSync      int64 `json:"pending_sync"`
}

type DashboardService interface {
	Stats() (*DashboardStats, error)
	BestSelling(limit int) ([]repository.BestSellingProduct, error)
	RevenueTrend(days int) ([]repository.DailyRevenue, error)
}

type dashboardService struct {
	txRepo      repository.TransactionRepository
	productRepo repository.ProductRepository
}

func NewDashboardService(txRepo repository.TransactionRepository, productRepo repository.ProductRepository) DashboardService {
	return &dashboardService{txRepo: txRepo, productRepo: productRepo}
}

func (s *dashboardService) Stats() (*DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.ProductCount, err = s.productRepo.Count(); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.productRepo.LowStockCount(DefaultLowStockThreshold); err != nil {
		return nil, err
	}
	if stats.TransactionCount, err = s.txRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = s.txRepo.TotalRevenue(); err != nil {
		return nil, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	if stats.TodayRevenue, err = s.txRepo.RevenueBetween(startOfDay, endOfDay); err != nil {
		return nil, err
	}
	if stats.TodayCount, err = s.txRepo.CountBetween(startOfDay, endOfDay); err != nil {
		return nil, err
	}
	if stats.PendingSync, err = s.txRepo.UnsyncedCount(); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *dashboardService) BestSelling(limit int) ([]repository.BestSellingProduct, error) {
	return s.txRepo.BestSelling(limit)
}

func (s *dashboardService) RevenueTrend(days int) ([]repository.DailyRevenue, error) {
	if days <= 0 {
		days = 7
	}
	start := time.Now().AddDate(0, 0, -days)
	return s.txRepo.DailyRevenueSince(start)
}
