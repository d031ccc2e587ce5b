package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/loyalty"
	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/sse"
	"github.com/shatlykos/cafe-management-system/pkg/telegram"
)

var (
	ErrTelegramDisabled = errors.New("telegram bot is not configured")
	ErrChatNotLinked    = errors.New("client has no telegram chat")
)

var clientMenuRows = [][]string{
	{"Мой баркод", "Моя история"},
	{"Мой завтрак", "Мой кофе"},
}

type TelegramService struct {
	bot       *telegram.BotClient
	clientSvc *ClientService
	scanSvc   *ScanService
	eventBus  *event.Bus
	sseHub    *sse.Hub
	publicURL string
	logger    *zap.Logger
}

func NewTelegramService(
	bot *telegram.BotClient,
	clientSvc *ClientService,
	scanSvc *ScanService,
	eventBus *event.Bus,
	sseHub *sse.Hub,
	publicURL string,
	logger *zap.Logger,
) *TelegramService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TelegramService{
		bot:       bot,
		clientSvc: clientSvc,
		scanSvc:   scanSvc,
		eventBus:  eventBus,
		sseHub:    sseHub,
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		logger:    logger,
	}
}

func (s *TelegramService) Enabled() bool {
	return s != nil && s.bot.Enabled()
}

func (s *TelegramService) SendCard(ctx context.Context, clientID int64, chatID int64) error {
	if !s.Enabled() {
		return ErrTelegramDisabled
	}

	client, err := s.clientSvc.Get(ctx, clientID)
	if err != nil {
		return err
	}

	if chatID == 0 {
		if !client.TelegramLinked() {
			return ErrChatNotLinked
		}
		chatID = *client.TelegramChatID
	} else if !client.TelegramLinked() || *client.TelegramChatID != chatID {
		if err := s.clientSvc.LinkTelegram(ctx, client.ID, chatID, fmt.Sprintf("chat_id=%d", chatID)); err != nil {
			return err
		}
		client.TelegramChatID = &chatID
	}

	if err := s.deliverCard(ctx, client, chatID); err != nil {
		metrics.IncTelegramSend("card", false)
		return err
	}
	metrics.IncTelegramSend("card", true)

	s.clientSvc.LogEvent(ctx, client.ID, model.EventSentToBot, fmt.Sprintf("chat_id=%d", chatID))

	if s.eventBus != nil {
		s.eventBus.Publish(event.EventCardSent, event.CardSentPayload{
			ClientID: client.ID,
			ChatID:   chatID,
		})
	}
	if s.sseHub != nil {
		s.sseHub.Broadcast(sse.NewEvent(sse.EventCardSent, map[string]interface{}{
			"client_id": client.ID,
			"name":      client.Name,
		}))
	}

	return nil
}

func (s *TelegramService) HandleUpdate(ctx context.Context, update telegram.Update) {
	if !s.Enabled() || update.Message == nil {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID
	if chatID == 0 {
		return
	}

	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)

	if strings.HasPrefix(lower, "/start") {
		s.handleStart(ctx, msg)
		return
	}

	client, err := s.clientSvc.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			s.reply(chatID, "Нажмите /start для автоматической регистрации и получения штрихкода.")
			return
		}
		s.logger.Warn("webhook chat lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	switch lower {
	case "/menu", "меню":
		s.sendMenu(chatID)
	case "мой баркод", "баркод", "/barcode":
		if err := s.deliverCard(ctx, client, chatID); err != nil {
			s.logger.Warn("card delivery failed", zap.Int64("client_id", client.ID), zap.Error(err))
		}
		s.sendMenu(chatID)
	case "моя история", "история", "/history":
		s.reply(chatID, fmt.Sprintf("Ваша история: %s", s.portalURL(client)))
		s.sendMenu(chatID)
	case "мой завтрак", "/breakfast":
		s.sendStats(ctx, client, chatID, model.CategoryBreakfast)
	case "мой кофе", "/coffee":
		s.sendStats(ctx, client, chatID, model.CategoryCoffee)
	default:
		s.reply(chatID, fmt.Sprintf(
			"Ваш клиентский профиль: %s\nКоманда: /start — прислать штрихкод снова.",
			s.portalURL(client),
		))
		s.sendMenu(chatID)
	}
}

func (s *TelegramService) handleStart(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID

	existing, err := s.clientSvc.FindByTelegramChatID(ctx, chatID)
	if err == nil {
		if err := s.deliverCard(ctx, existing, chatID); err != nil {
			s.logger.Warn("card delivery failed", zap.Int64("client_id", existing.ID), zap.Error(err))
		}
		s.sendMenu(chatID)
		return
	}
	if !errors.Is(err, ErrClientNotFound) {
		s.logger.Warn("webhook chat lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	name := startClientName(msg, chatID)

	var client *model.Client
	candidate, err := s.clientSvc.FindUnlinkedByName(ctx, name)
	switch {
	case err == nil:
		if err := s.clientSvc.LinkTelegram(ctx, candidate.ID, chatID, fmt.Sprintf("matched_by_name chat_id=%d", chatID)); err != nil {
			s.logger.Warn("link by name failed", zap.Int64("client_id", candidate.ID), zap.Error(err))
			return
		}
		client = candidate
		client.TelegramChatID = &chatID
	case errors.Is(err, ErrClientNotFound):
		notes := "Создан через Telegram /start"
		created, createErr := s.clientSvc.Create(ctx, CreateClientRequest{
			Name:  name,
			Notes: &notes,
		})
		if createErr != nil {
			s.logger.Warn("register via telegram failed", zap.Int64("chat_id", chatID), zap.Error(createErr))
			return
		}
		if err := s.clientSvc.LinkTelegram(ctx, created.ID, chatID, fmt.Sprintf("auto chat_id=%d", chatID)); err != nil {
			s.logger.Warn("link created client failed", zap.Int64("client_id", created.ID), zap.Error(err))
			return
		}
		client = created
		client.TelegramChatID = &chatID
	default:
		s.logger.Warn("unlinked client lookup failed", zap.String("name", name), zap.Error(err))
		return
	}

	if err := s.deliverCard(ctx, client, chatID); err != nil {
		s.logger.Warn("card delivery failed", zap.Int64("client_id", client.ID), zap.Error(err))
	}
	s.reply(chatID, "Готово. Ваш профиль создан автоматически.")
	s.sendMenu(chatID)
}

func (s *TelegramService) SendDailyDigest(ctx context.Context, chatID int64) error {
	if !s.Enabled() {
		return ErrTelegramDisabled
	}
	if chatID == 0 {
		return ErrChatNotLinked
	}

	summary, err := s.scanSvc.Summary(ctx)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"Итоги дня:\nЗавтраки: %d\nКофе: %d\nБесплатных визитов: %d\nКлиентов в базе: %d",
		summary.BreakfastToday,
		summary.CoffeeToday,
		summary.FreeToday,
		summary.ClientsTotal,
	)

	if err := s.bot.SendMessage(chatID, text); err != nil {
		metrics.IncTelegramSend("digest", false)
		return err
	}
	metrics.IncTelegramSend("digest", true)
	return nil
}

func (s *TelegramService) deliverCard(ctx context.Context, client *model.Client, chatID int64) error {
	if !barcode.Valid(client.Barcode) {
		return barcode.ErrInvalidCode
	}

	text := fmt.Sprintf(
		"Ваш штрихкод: `%s`\nИстория и статус: %s\nПокажите этот штрихкод в кафе при визите.",
		client.Barcode,
		s.portalURL(client),
	)
	if err := s.bot.SendMarkdown(chatID, text); err != nil {
		return err
	}

	png, err := barcode.RenderPNG(client.Barcode, barcode.DefaultPNGOptions())
	if err != nil {
		return err
	}

	return s.bot.SendPhoto(
		chatID,
		fmt.Sprintf("barcode_%d.png", client.ID),
		png,
		fmt.Sprintf("Ваш штрихкод: %s", client.Barcode),
	)
}

func (s *TelegramService) sendStats(ctx context.Context, client *model.Client, chatID int64, category model.VisitCategory) {
	stats, err := s.scanSvc.StatsFor(ctx, client.ID, category)
	if err != nil {
		s.logger.Warn("stats lookup failed", zap.Int64("client_id", client.ID), zap.Error(err))
		return
	}

	label := "Завтрак"
	if category == model.CategoryCoffee {
		label = "Кофе"
	}

	s.reply(chatID, fmt.Sprintf(
		"%s: цикл %d/%d.\nДо бесплатного: %d.",
		label,
		loyalty.FreeVisitPeriod-stats.UntilFree,
		loyalty.FreeVisitPeriod,
		stats.UntilFree,
	))
	s.sendMenu(chatID)
}

func (s *TelegramService) sendMenu(chatID int64) {
	if err := s.bot.SendKeyboard(chatID, "Выберите действие:", clientMenuRows, "Нажмите кнопку меню"); err != nil {
		s.logger.Warn("send menu failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *TelegramService) reply(chatID int64, text string) {
	if err := s.bot.SendMessage(chatID, text); err != nil {
		s.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *TelegramService) portalURL(client *model.Client) string {
	return fmt.Sprintf("%s/portal/%s", s.publicURL, client.HistoryToken)
}

func startClientName(msg *telegram.Message, chatID int64) string {
	if msg.From != nil {
		if name := strings.TrimSpace(msg.From.FirstName); name != "" {
			return name
		}
		if username := strings.TrimSpace(msg.From.Username); username != "" {
			return "@" + username
		}
	}
	return fmt.Sprintf("Клиент %d", chatID)
}
