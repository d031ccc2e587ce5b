package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/service"
)

type BarcodeJob struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewBarcodeJob(clientService *service.ClientService, logger *zap.Logger) *BarcodeJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BarcodeJob{
		clientService: clientService,
		logger:        logger,
	}
}

func (j *BarcodeJob) RepairBarcodes() {
	if j == nil || j.clientService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repaired, err := j.clientService.RepairBarcodes(ctx)
	if err != nil {
		j.logger.Warn("nightly barcode repair failed", zap.Error(err))
		return
	}
	if repaired > 0 {
		j.logger.Info("nightly barcode repair finished", zap.Int("repaired", repaired))
	}
}
