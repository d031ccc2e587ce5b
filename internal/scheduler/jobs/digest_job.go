package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/service"
)

type DigestJob struct {
	telegramService *service.TelegramService
	chatIDs         []int64
	logger          *zap.Logger
}

func NewDigestJob(telegramService *service.TelegramService, chatIDs []int64, logger *zap.Logger) *DigestJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DigestJob{
		telegramService: telegramService,
		chatIDs:         chatIDs,
		logger:          logger,
	}
}

func (j *DigestJob) SendDailyDigest() {
	if j == nil || j.telegramService == nil || !j.telegramService.Enabled() {
		return
	}
	if len(j.chatIDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, chatID := range j.chatIDs {
		if chatID == 0 {
			continue
		}
		if err := j.telegramService.SendDailyDigest(ctx, chatID); err != nil {
			j.logger.Warn("daily digest send failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
	}
}
