// Package cron schedules the platform's background maintenance jobs.
package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edupress/edu-platform-api/services/device"
)

// staleDeviceAge is how long a device may stay unused before the sweep
// deactivates it and frees its slot.
const staleDeviceAge = 30 * 24 * time.Hour

// CronManager manages all scheduled jobs.
type CronManager struct {
	cron    *cron.Cron
	devices *device.Service
}

// NewCronManager creates a cron manager.
func NewCronManager(devices *device.Service) *CronManager {
	return &CronManager{
		cron:    cron.New(),
		devices: devices,
	}
}

// Start registers all jobs and starts the scheduler.
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	// Daily at 03:00: deactivate devices unused for 30 days.
	if _, err := m.cron.AddFunc("0 3 * * *", m.SweepStaleDevices); err != nil {
		return err
	}

	m.cron.Start()
	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// SweepStaleDevices deactivates devices unused past the stale cutoff.
func (m *CronManager) SweepStaleDevices() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	swept, err := m.devices.DeactivateStale(ctx, time.Now().UTC().Add(-staleDeviceAge))
	if err != nil {
		log.Printf("cron: stale device sweep failed: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("cron: deactivated %d stale devices", swept)
	}
}
