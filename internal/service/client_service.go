package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

const (
	historyTokenBytes = 18
	eventListLimit    = 100
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrInvalidClientInput = errors.New("invalid client input")
)

type CreateClientRequest struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type ClientService struct {
	clientRepo repository.ClientRepository
	eventRepo  repository.ClientEventRepository
	pool       *pgxpool.Pool
	eventBus   *event.Bus
	sseHub     *sse.Hub
	logger     *zap.Logger
}

func NewClientService(
	clientRepo repository.ClientRepository,
	eventRepo repository.ClientEventRepository,
	pool *pgxpool.Pool,
	eventBus *event.Bus,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClientService{
		clientRepo: clientRepo,
		eventRepo:  eventRepo,
		pool:       pool,
		eventBus:   eventBus,
		sseHub:     sseHub,
		logger:     logger,
	}
}

func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*model.Client, error) {
	if s.pool == nil {
		return nil, errors.New("database pool is nil")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidClientInput
	}

	token, err := newHistoryToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &model.Client{
		Name:         name,
		Phone:        trimPtr(req.Phone),
		Notes:        trimPtr(req.Notes),
		HistoryToken: token,
		CreatedAt:    now,
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO clients (name, phone, notes, history_token, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		client.Name,
		client.Phone,
		client.Notes,
		client.HistoryToken,
		client.CreatedAt,
	).Scan(&client.ID); err != nil {
		return nil, err
	}

	code, err := barcode.Generate(client.ID)
	if err != nil {
		return nil, err
	}
	client.Barcode = code

	if _, err := tx.Exec(
		ctx,
		`UPDATE clients SET barcode = $2 WHERE id = $1`,
		client.ID,
		client.Barcode,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO client_events (id, client_id, event_type, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(),
		client.ID,
		model.EventCardIssued,
		fmt.Sprintf("barcode=%s", client.Barcode),
		now,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(event.EventClientCreated, event.ClientCreatedPayload{
			ClientID: client.ID,
			Name:     client.Name,
			Barcode:  client.Barcode,
		})
	}
	if s.sseHub != nil {
		s.sseHub.Broadcast(sse.NewEvent(sse.EventClientCreated, map[string]interface{}{
			"client_id": client.ID,
			"name":      client.Name,
			"barcode":   client.Barcode,
		}))
	}

	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*model.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) FindByBarcode(ctx context.Context, code string) (*model.Client, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrInvalidClientInput
	}

	client, err := s.clientRepo.FindByBarcode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) FindByHistoryToken(ctx context.Context, token string) (*model.Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrClientNotFound
	}

	client, err := s.clientRepo.FindByHistoryToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.Client, error) {
	client, err := s.clientRepo.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) FindUnlinkedByName(ctx context.Context, name string) (*model.Client, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrClientNotFound
	}

	linked := false
	clients, err := s.clientRepo.List(ctx, repository.ClientListFilter{
		Keyword: &trimmed,
		Linked:  &linked,
		Pagination: repository.Pagination{
			Limit: 50,
		},
	})
	if err != nil {
		return nil, err
	}

	for _, client := range clients {
		if strings.EqualFold(client.Name, trimmed) {
			return client, nil
		}
	}
	return nil, ErrClientNotFound
}

func (s *ClientService) List(ctx context.Context, filter repository.ClientListFilter) ([]*model.Client, int64, error) {
	clients, err := s.clientRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.clientRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (s *ClientService) Update(ctx context.Context, id int64, req UpdateClientRequest) (*model.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidClientInput
		}
		client.Name = name
	}
	if req.Phone != nil {
		client.Phone = trimPtr(req.Phone)
	}
	if req.Notes != nil {
		client.Notes = trimPtr(req.Notes)
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, id int64) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	return nil
}

func (s *ClientService) LinkTelegram(ctx context.Context, id int64, chatID int64, details string) error {
	if chatID == 0 {
		return ErrInvalidClientInput
	}

	if err := s.clientRepo.LinkTelegram(ctx, id, chatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	s.LogEvent(ctx, id, model.EventBotLinked, details)
	return nil
}

func (s *ClientService) LogEvent(ctx context.Context, clientID int64, eventType, details string) {
	if s.eventRepo == nil {
		return
	}

	entry := &model.ClientEvent{
		ClientID:  clientID,
		EventType: eventType,
		Details:   strPtrOrNil(details),
	}
	if err := s.eventRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("log client event failed",
			zap.Int64("client_id", clientID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *ClientService) Events(ctx context.Context, clientID int64) ([]*model.ClientEvent, error) {
	if _, err := s.Get(ctx, clientID); err != nil {
		return nil, err
	}

	return s.eventRepo.List(ctx, repository.EventListFilter{
		ClientID: &clientID,
		Pagination: repository.Pagination{
			Limit: eventListLimit,
		},
	})
}

func (s *ClientService) RepairBarcodes(ctx context.Context) (int, error) {
	clients, err := s.clientRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, client := range clients {
		if barcode.Valid(client.Barcode) {
			continue
		}

		code, err := barcode.Generate(client.ID)
		if err != nil {
			s.logger.Warn("cannot regenerate barcode",
				zap.Int64("client_id", client.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.clientRepo.UpdateBarcode(ctx, client.ID, code); err != nil {
			return repaired, err
		}
		repaired++
	}

	if repaired > 0 {
		metrics.AddBarcodesRepaired(repaired)
		if s.sseHub != nil {
			s.sseHub.Broadcast(sse.NewEvent(sse.EventRepairDone, map[string]interface{}{
				"repaired": repaired,
				"ts":       time.Now().UTC().Format(time.RFC3339Nano),
			}))
		}
		s.logger.Info("barcode repair pass finished", zap.Int("repaired", repaired))
	}

	return repaired, nil
}

func newHistoryToken() (string, error) {
	buf := make([]byte, historyTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func strPtrOrNil(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
