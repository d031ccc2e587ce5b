package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/loyalty"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

func newUnitScanService() *ScanService {
	return &ScanService{
		logger: zap.NewNop(),
	}
}

func TestScan_TrimsCodeAndReturnsVisit(t *testing.T) {
	t.Parallel()

	svc := newUnitScanService()
	client := &model.Client{ID: 42, Name: "Анна", Barcode: "2900000000421"}

	svc.findClientFn = func(_ context.Context, code string) (*model.Client, error) {
		if code != "2900000000421" {
			t.Fatalf("expected trimmed code, got %q", code)
		}
		return client, nil
	}
	svc.recordVisitFn = func(_ context.Context, got *model.Client, category model.VisitCategory, _ time.Time) (*model.Visit, error) {
		if got.ID != client.ID {
			t.Fatalf("unexpected client id: %d", got.ID)
		}
		if category != model.CategoryBreakfast {
			t.Fatalf("unexpected category: %s", category)
		}
		return &model.Visit{
			ClientID: got.ID,
			Category: category,
			Ordinal:  3,
			Free:     false,
		}, nil
	}

	result, err := svc.Scan(context.Background(), "  2900000000421\n", model.CategoryBreakfast)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.Client.ID != 42 {
		t.Fatalf("unexpected client id: %d", result.Client.ID)
	}
	if result.Visit.Ordinal != 3 {
		t.Fatalf("unexpected ordinal: %d", result.Visit.Ordinal)
	}
	if want := loyalty.Stats(3); result.Stats != want {
		t.Fatalf("unexpected stats: %+v, want %+v", result.Stats, want)
	}
}

func TestScan_EmptyCodeRejectedBeforeLookup(t *testing.T) {
	t.Parallel()

	svc := newUnitScanService()
	svc.findClientFn = func(_ context.Context, _ string) (*model.Client, error) {
		t.Fatal("lookup must not run for empty input")
		return nil, nil
	}

	if _, err := svc.Scan(context.Background(), "   ", model.CategoryBreakfast); !errors.Is(err, ErrInvalidScanInput) {
		t.Fatalf("expected ErrInvalidScanInput, got %v", err)
	}
}

func TestScan_UnknownCategoryRejected(t *testing.T) {
	t.Parallel()

	svc := newUnitScanService()
	svc.findClientFn = func(_ context.Context, _ string) (*model.Client, error) {
		t.Fatal("lookup must not run for bad category")
		return nil, nil
	}

	if _, err := svc.Scan(context.Background(), "2900000000421", model.VisitCategory("lunch")); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestScan_UnknownCodeHasNoSideEffects(t *testing.T) {
	t.Parallel()

	svc := newUnitScanService()
	svc.findClientFn = func(_ context.Context, _ string) (*model.Client, error) {
		return nil, repository.ErrNotFound
	}
	svc.recordVisitFn = func(_ context.Context, _ *model.Client, _ model.VisitCategory, _ time.Time) (*model.Visit, error) {
		t.Fatal("unknown code must not record a visit")
		return nil, nil
	}

	if _, err := svc.Scan(context.Background(), "2909999999990", model.CategoryCoffee); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestScan_PublishesVisitRecordedEvent(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	svc := newUnitScanService()
	svc.eventBus = bus

	gotEvent := make(chan event.VisitRecordedPayload, 1)
	bus.Subscribe(event.EventVisitRecorded, func(payload any) {
		entry, ok := payload.(event.VisitRecordedPayload)
		if !ok {
			return
		}
		select {
		case gotEvent <- entry:
		default:
		}
	})

	client := &model.Client{ID: 7, Name: "Георгий", Barcode: "2900000000070"}
	svc.findClientFn = func(_ context.Context, _ string) (*model.Client, error) {
		return client, nil
	}
	svc.recordVisitFn = func(_ context.Context, got *model.Client, category model.VisitCategory, _ time.Time) (*model.Visit, error) {
		return &model.Visit{
			ClientID: got.ID,
			Category: category,
			Ordinal:  7,
			Free:     true,
		}, nil
	}

	result, err := svc.Scan(context.Background(), client.Barcode, model.CategoryCoffee)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if !result.Visit.Free {
		t.Fatal("expected seventh visit to be free")
	}

	select {
	case payload := <-gotEvent:
		if payload.ClientID != client.ID {
			t.Fatalf("unexpected client id in event: %d", payload.ClientID)
		}
		if payload.Category != model.CategoryCoffee {
			t.Fatalf("unexpected category in event: %s", payload.Category)
		}
		if !payload.Free {
			t.Fatal("expected free flag in event payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected visit recorded event")
	}
}

func TestScan_ConcurrentScansAllRecorded(t *testing.T) {
	t.Parallel()

	svc := newUnitScanService()
	client := &model.Client{ID: 1, Name: "Мария", Barcode: "2900000000018"}

	svc.findClientFn = func(_ context.Context, _ string) (*model.Client, error) {
		return client, nil
	}

	var (
		mu      sync.Mutex
		ordinal int64
	)
	svc.recordVisitFn = func(_ context.Context, got *model.Client, category model.VisitCategory, _ time.Time) (*model.Visit, error) {
		mu.Lock()
		defer mu.Unlock()
		next, free := loyalty.NextVisit(ordinal)
		ordinal = next
		return &model.Visit{
			ClientID: got.ID,
			Category: category,
			Ordinal:  next,
			Free:     free,
		}, nil
	}

	const workers = 50
	errCh := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Scan(context.Background(), client.Barcode, model.CategoryBreakfast)
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("Scan returned error: %v", err)
		}
	}

	mu.Lock()
	finalOrdinal := ordinal
	mu.Unlock()

	if finalOrdinal != workers {
		t.Fatalf("expected final ordinal %d, got %d", workers, finalOrdinal)
	}
}

func TestVisitDetails_MentionsFreeVisit(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	got := visitDetails(model.CategoryBreakfast, day, false)
	if got != "Завтрак зарегистрирован за 2026-03-14" {
		t.Fatalf("unexpected breakfast details: %q", got)
	}

	got = visitDetails(model.CategoryCoffee, day, true)
	if got != "Кофе зарегистрирован за 2026-03-14 (бесплатно)" {
		t.Fatalf("unexpected coffee details: %q", got)
	}
}
