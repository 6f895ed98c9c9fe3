// Package sweeper runs the periodic ledger maintenance tasks: provisioning
// upcoming payments for active contracts and flagging overdue ones.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/internal/pkg/ledger"
)

// Manager manages the background ledger sweep workers
type Manager struct {
	db          *gorm.DB
	sweepTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global sweeper manager (singleton)
func GetManager(db *gorm.DB) *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			db:     db,
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the background sweep worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	interval := 60 * time.Minute
	if settings := getAppSettings(); settings != nil {
		if v := settings.GetSweepIntervalMinutes(); v > 0 {
			interval = time.Duration(v) * time.Minute
		}
	}

	log.Infof("[Sweeper] Starting ledger sweep worker (interval: %v)", interval)
	m.sweepTicker = time.NewTicker(interval)
	m.wg.Add(1)
	go m.sweepWorker()
}

// Stop stops the background sweep worker
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Sweeper] Stopping ledger sweep worker...")

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}

	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()

	log.Info("[Sweeper] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// sweepWorker runs periodic ledger sweeps until stopped
func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Sweeper] Sweep worker stopping")
			return
		case <-m.sweepTicker.C:
			if err := m.RunSweepOnce(); err != nil {
				log.Errorf("[Sweeper] Ledger sweep error: %v", err)
			}
		}
	}
}

// RunSweepOnce performs one full backfill + overdue pass. Also exposed as a
// manual trigger for admin use.
func (m *Manager) RunSweepOnce() error {
	cfg := ledger.DefaultConfig()
	if settings := getAppSettings(); settings != nil {
		cfg = ledger.ConfigFromSettings(settings)
	}

	svc := ledger.NewServiceFromDB(m.db, cfg)
	ctx := context.Background()
	now := time.Now()

	created, err := svc.Backfill(ctx, now)
	if err != nil {
		return err
	}
	if created > 0 {
		log.Infof("[Sweeper] Provisioned %d upcoming payment(s)", created)
	}

	flagged, err := svc.SweepOverdue(ctx, now)
	if err != nil {
		return err
	}
	if flagged > 0 {
		log.Infof("[Sweeper] Marked %d payment(s) overdue", flagged)
	}

	return nil
}

// getAppSettings safely returns the current app settings
func getAppSettings() *models.AppSettings {
	return models.GetAppSettings()
}
