package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/loyalty"
	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

const (
	scanResultOK      = "ok"
	scanResultUnknown = "unknown_code"
	scanResultInvalid = "invalid"
	scanResultError   = "error"
)

var (
	ErrInvalidScanInput = errors.New("invalid scan input")
	ErrInvalidCategory  = errors.New("invalid visit category")
)

type ScanResult struct {
	Client *model.Client      `json:"client"`
	Visit  *model.Visit       `json:"visit"`
	Stats  loyalty.VisitStats `json:"stats"`
}

type DashboardSummary struct {
	ClientsTotal   int64 `json:"clients_total"`
	BreakfastToday int64 `json:"breakfast_today"`
	CoffeeToday    int64 `json:"coffee_today"`
	FreeToday      int64 `json:"free_today"`
}

type ScanService struct {
	clientRepo repository.ClientRepository
	visitRepo  repository.VisitRepository
	pool       *pgxpool.Pool
	eventBus   *event.Bus
	sseHub     *sse.Hub
	logger     *zap.Logger

	findClientFn  func(ctx context.Context, code string) (*model.Client, error)
	recordVisitFn func(ctx context.Context, client *model.Client, category model.VisitCategory, on time.Time) (*model.Visit, error)
}

func NewScanService(
	clientRepo repository.ClientRepository,
	visitRepo repository.VisitRepository,
	pool *pgxpool.Pool,
	eventBus *event.Bus,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ScanService{
		clientRepo: clientRepo,
		visitRepo:  visitRepo,
		pool:       pool,
		eventBus:   eventBus,
		sseHub:     sseHub,
		logger:     logger,
	}
}

func (s *ScanService) Scan(ctx context.Context, rawCode string, category model.VisitCategory) (*ScanResult, error) {
	code := strings.TrimSpace(rawCode)
	if code == "" {
		metrics.IncScan(string(category), scanResultInvalid)
		return nil, ErrInvalidScanInput
	}
	if !category.Valid() {
		metrics.IncScan(string(category), scanResultInvalid)
		return nil, ErrInvalidCategory
	}

	client, err := s.findClient(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.IncScan(string(category), scanResultUnknown)
			return nil, ErrClientNotFound
		}
		metrics.IncScan(string(category), scanResultError)
		return nil, err
	}

	visit, err := s.recordVisit(ctx, client, category, time.Time{})
	if err != nil {
		metrics.IncScan(string(category), scanResultError)
		return nil, err
	}

	metrics.IncScan(string(category), scanResultOK)
	if visit.Free {
		metrics.IncFreeVisit(string(category))
	}
	s.publishVisit(client, visit)

	return &ScanResult{
		Client: client,
		Visit:  visit,
		Stats:  loyalty.Stats(visit.Ordinal),
	}, nil
}

func (s *ScanService) RegisterVisit(ctx context.Context, clientID int64, category model.VisitCategory, on time.Time) (*ScanResult, error) {
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	visit, err := s.recordVisit(ctx, client, category, on)
	if err != nil {
		return nil, err
	}

	if visit.Free {
		metrics.IncFreeVisit(string(category))
	}
	s.publishVisit(client, visit)

	return &ScanResult{
		Client: client,
		Visit:  visit,
		Stats:  loyalty.Stats(visit.Ordinal),
	}, nil
}

func (s *ScanService) History(ctx context.Context, clientID int64, category model.VisitCategory) ([]*model.Visit, error) {
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.visitRepo.ListByClient(ctx, clientID, category)
}

func (s *ScanService) StatsFor(ctx context.Context, clientID int64, category model.VisitCategory) (loyalty.VisitStats, error) {
	if !category.Valid() {
		return loyalty.VisitStats{}, ErrInvalidCategory
	}

	total, err := s.visitRepo.CountByClient(ctx, clientID, category)
	if err != nil {
		return loyalty.VisitStats{}, err
	}
	return loyalty.Stats(total), nil
}

func (s *ScanService) Summary(ctx context.Context) (*DashboardSummary, error) {
	today := time.Now().UTC()

	clientsTotal, err := s.clientRepo.Count(ctx, repository.ClientListFilter{})
	if err != nil {
		return nil, err
	}

	breakfastToday, err := s.visitRepo.CountOn(ctx, today, model.CategoryBreakfast)
	if err != nil {
		return nil, err
	}

	coffeeToday, err := s.visitRepo.CountOn(ctx, today, model.CategoryCoffee)
	if err != nil {
		return nil, err
	}

	freeBreakfast, err := s.visitRepo.CountFreeOn(ctx, today, model.CategoryBreakfast)
	if err != nil {
		return nil, err
	}

	freeCoffee, err := s.visitRepo.CountFreeOn(ctx, today, model.CategoryCoffee)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		ClientsTotal:   clientsTotal,
		BreakfastToday: breakfastToday,
		CoffeeToday:    coffeeToday,
		FreeToday:      freeBreakfast + freeCoffee,
	}, nil
}

func (s *ScanService) findClient(ctx context.Context, code string) (*model.Client, error) {
	if s.findClientFn != nil {
		return s.findClientFn(ctx, code)
	}
	return s.clientRepo.FindByBarcode(ctx, code)
}

func (s *ScanService) recordVisit(ctx context.Context, client *model.Client, category model.VisitCategory, on time.Time) (*model.Visit, error) {
	if s.recordVisitFn != nil {
		return s.recordVisitFn(ctx, client, category, on)
	}
	return s.recordVisitTx(ctx, client, category, on)
}

func (s *ScanService) recordVisitTx(ctx context.Context, client *model.Client, category model.VisitCategory, on time.Time) (*model.Visit, error) {
	if s.pool == nil {
		return nil, errors.New("database pool is nil")
	}

	day := on.UTC()
	if on.IsZero() {
		day = time.Now().UTC()
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var lockedID int64
	if err := tx.QueryRow(
		ctx,
		`SELECT id FROM clients WHERE id = $1 FOR UPDATE`,
		client.ID,
	).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	var prior int64
	if err := tx.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM loyalty_visits WHERE client_id = $1 AND category = $2`,
		client.ID,
		category,
	).Scan(&prior); err != nil {
		return nil, err
	}

	ordinal, free := loyalty.NextVisit(prior)
	visit := &model.Visit{
		ClientID:  client.ID,
		Category:  category,
		Ordinal:   ordinal,
		Free:      free,
		VisitedOn: day,
	}

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO loyalty_visits (client_id, category, ordinal, is_free, visited_on)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		visit.ClientID,
		visit.Category,
		visit.Ordinal,
		visit.Free,
		visit.VisitedOn,
	).Scan(&visit.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO client_events (id, client_id, event_type, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(),
		client.ID,
		category.ScanEventType(),
		visitDetails(category, day, free),
		time.Now().UTC(),
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return visit, nil
}

func (s *ScanService) publishVisit(client *model.Client, visit *model.Visit) {
	payload := event.VisitRecordedPayload{
		ClientID:   client.ID,
		ClientName: client.Name,
		Category:   visit.Category,
		Ordinal:    visit.Ordinal,
		Free:       visit.Free,
		VisitedOn:  visit.VisitedOn,
	}

	if s.eventBus != nil {
		s.eventBus.Publish(event.EventVisitRecorded, payload)
	}
	if s.sseHub != nil {
		s.sseHub.Broadcast(sse.NewEvent(sse.EventVisitRecorded, payload))
	}
}

func visitDetails(category model.VisitCategory, day time.Time, free bool) string {
	label := "Завтрак зарегистрирован за"
	if category == model.CategoryCoffee {
		label = "Кофе зарегистрирован за"
	}

	details := fmt.Sprintf("%s %s", label, day.Format("2006-01-02"))
	if free {
		details += " (бесплатно)"
	}
	return details
}
