package scheduler

import (
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// StaleOrderExpirer cancels gateway orders whose payment window has passed.
type StaleOrderExpirer interface {
	ExpireStalePendingOrders() (int, error)
}

// OrderSweeper periodically expires abandoned gateway checkouts.
type OrderSweeper struct {
	cron    *cron.Cron
	spec    string
	expirer StaleOrderExpirer
}

// NewOrderSweeper builds a sweeper running on spec, e.g. "@every 1m".
// Overlapping runs are skipped.
func NewOrderSweeper(spec string, expirer StaleOrderExpirer) *OrderSweeper {
	return &OrderSweeper{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		spec:    spec,
		expirer: expirer,
	}
}

// Start schedules the sweep and starts the cron runner.
func (s *OrderSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		logger.Error("Failed to add cron job for pending order sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Pending order sweeper started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// Sweep runs one expiry pass.
func (s *OrderSweeper) Sweep() {
	expired, err := s.expirer.ExpireStalePendingOrders()
	if err != nil {
		logger.Error("Pending order sweep failed", err, map[string]interface{}{
			"expired": expired,
		})
		return
	}
	if expired > 0 {
		logger.Info("Expired stale pending orders", map[string]interface{}{
			"expired": expired,
		})
	}
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *OrderSweeper) Stop() {
	logger.Info("Stopping pending order sweeper...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Pending order sweeper stopped", nil)
}
