package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	specBarcodeRepair = "0 30 3 * * *"
	specDailyDigest   = "0 5 20 * * *"
)

type BarcodeTask interface {
	RepairBarcodes()
}

type DigestTask interface {
	SendDailyDigest()
}

type Deps struct {
	BarcodeJob BarcodeTask
	DigestJob  DigestTask
}

func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.BarcodeJob != nil {
		addFunc(c, specBarcodeRepair, "barcode.repair", logger, deps.BarcodeJob.RepairBarcodes)
	}
	if deps.DigestJob != nil {
		addFunc(c, specDailyDigest, "telegram.daily_digest", logger, deps.DigestJob.SendDailyDigest)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}
