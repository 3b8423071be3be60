package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/config"
	"github.com/hjmsindangan/stockbook/internal/service/reporting"
	"github.com/hjmsindangan/stockbook/pkg/clients/alerts"
)

// Scheduler manages the nightly report archive, the snapshot/ledger drift
// check and the low-stock alert scan.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	alertClient  alerts.Client
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. The cron runs in the
// configured inventory timezone so "20:00" means closing time at the store.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, alertClient alerts.Client, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		reportingSvc: reportingSvc,
		alertClient:  alertClient,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.archiveDailyReport); err != nil {
		s.logger.Error("failed to schedule daily stock report", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.Reporting.DriftCron, s.runDriftCheck); err != nil {
		s.logger.Error("failed to schedule drift check", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) archiveDailyReport() {
	s.logger.Info("generating daily stock report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reportingSvc.DailyStockReport(ctx)
	if err != nil {
		s.logger.Error("failed to generate daily stock report", zap.Error(err))
		return
	}
	s.logger.Info("daily stock report complete", zap.Int("categories", len(report.Categories)))

	s.sendLowStockAlerts(ctx)
}

func (s *Scheduler) runDriftCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	drift, err := s.reportingSvc.DriftReport(ctx)
	if err != nil {
		s.logger.Error("drift check failed", zap.Error(err))
		return
	}

	if len(drift) == 0 {
		s.logger.Info("drift check clean")
		return
	}

	for _, record := range drift {
		s.logger.Warn("snapshot diverged from ledger",
			zap.String("category", record.Category),
			zap.String("product", record.Product),
			zap.String("size", record.Size),
			zap.Float64("snapshot_pcs_meter", record.Snapshot.Primary),
			zap.Float64("ledger_pcs_meter", record.LedgerBalance.Primary))
	}
}

func (s *Scheduler) sendLowStockAlerts(ctx context.Context) {
	if s.alertClient == nil {
		return
	}

	low, err := s.reportingSvc.LowStock(ctx, s.cfg.Alerts.LowStockThreshold)
	if err != nil {
		s.logger.Error("low stock scan failed", zap.Error(err))
		return
	}

	for _, item := range low {
		alert := alerts.LowStockAlert{
			Product:        item.Product,
			Size:           item.Size,
			Category:       item.Category,
			BalancePrimary: item.LedgerBalance.Primary,
			BalanceSecond:  item.LedgerBalance.Secondary,
			Message: fmt.Sprintf("%s (Size: %s) is down to %.3f pcs/meter in %s",
				item.Product, item.Size, item.LedgerBalance.Primary, item.Category),
		}
		if err := s.alertClient.SendLowStockAlert(ctx, alert); err != nil {
			s.logger.Error("failed to send low stock alert",
				zap.String("product", item.Product), zap.String("size", item.Size), zap.Error(err))
		}
	}
}
