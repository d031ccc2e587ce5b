//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	v1 "github.com/shatlykos/cafe-management-system/internal/api/v1"
	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/repository/postgres"
	"github.com/shatlykos/cafe-management-system/internal/service"
	"github.com/shatlykos/cafe-management-system/internal/sse"
	"github.com/shatlykos/cafe-management-system/internal/station"
	systemlog "github.com/shatlykos/cafe-management-system/pkg/logger"
)

const (
	adminPassword   = "AdminPass123!"
	baristaPassword = "BaristaPass123!"
	stationSecret   = "integration-secret"
	internalToken   = "integration-internal-token"
)

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginSessionResult struct {
	AccessToken  string
	RefreshToken string
	AccessCookie *http.Cookie
	AllCookies   []*http.Cookie
}

type integrationEnv struct {
	pool            *pgxpool.Pool
	router          *gin.Engine
	privateKey      *rsa.PrivateKey
	adminID         uuid.UUID
	adminUsername   string
	baristaID       uuid.UUID
	baristaUsername string

	staffRepo  repository.StaffRepository
	clientRepo repository.ClientRepository
	visitRepo  repository.VisitRepository

	clientSvc  *service.ClientService
	scanSvc    *service.ScanService
	menuSvc    *service.MenuService
	financeSvc *service.FinanceService
	exportSvc  *service.ExportService
	authSvc    *service.AuthService
	sseHub     *sse.Hub
	gateway    *station.Gateway
}

var suite *integrationEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	env, err := buildIntegrationEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	suite = env

	code := m.Run()

	if suite != nil {
		if suite.gateway != nil {
			suite.gateway.Close()
		}
		if suite.sseHub != nil {
			suite.sseHub.Close()
		}
		if suite.pool != nil {
			suite.pool.Close()
		}
	}

	os.Exit(code)
}

func buildIntegrationEnv() (*integrationEnv, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "cafehub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/cafehub_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		if pingErr := pool.Ping(ctx); pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, errors.New("postgres did not become ready")
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := applyAllMigrations(ctx, pool); err != nil {
		return nil, err
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	if err := setPublicKeyEnv(privateKey); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	clientRepo := postgres.NewClientRepository(pool)
	visitRepo := postgres.NewVisitRepository(pool)
	eventRepo := postgres.NewClientEventRepository(pool)
	staffRepo := postgres.NewStaffRepository(pool)
	ingredientRepo := postgres.NewIngredientRepository(pool)
	dishRepo := postgres.NewDishRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)

	sseHub := sse.NewHub(logger)
	eventBus := event.NewBus()

	clientSvc := service.NewClientService(clientRepo, eventRepo, pool, eventBus, sseHub, logger)
	scanSvc := service.NewScanService(clientRepo, visitRepo, pool, eventBus, sseHub, logger)
	menuSvc := service.NewMenuService(ingredientRepo, dishRepo, logger)
	financeSvc := service.NewFinanceService(expenseRepo, saleRepo, menuSvc, logger)
	exportSvc := service.NewExportService(menuSvc, financeSvc, logger)
	authSvc := service.NewAuthService(staffRepo, pool, privateKey)
	gateway := station.NewGateway(scanSvc, sseHub, logger)

	adminID, err := seedStaff(ctx, staffRepo, "admin_integration", adminPassword, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	baristaID, err := seedStaff(ctx, staffRepo, "barista_integration", baristaPassword, model.RoleBarista)
	if err != nil {
		return nil, err
	}

	logStore := systemlog.NewSystemLogStore(200)

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.MaintenanceMode())
	v1.RegisterAuthRoutes(apiV1, authSvc)
	v1.RegisterClientRoutes(apiV1, clientSvc, nil)
	v1.RegisterBarcodeRoutes(apiV1, clientSvc)
	v1.RegisterScanRoutes(apiV1, scanSvc)
	v1.RegisterMenuRoutes(apiV1, menuSvc)
	v1.RegisterFinanceRoutes(apiV1, financeSvc)
	v1.RegisterExportRoutes(apiV1, exportSvc)
	v1.RegisterSystemRoutes(apiV1, logStore)
	v1.RegisterSSERoutes(apiV1, sseHub)
	v1.RegisterStationRoutes(apiV1, gateway, stationSecret)
	if err := v1.RegisterPortalRoutes(router, clientSvc, scanSvc, logger); err != nil {
		return nil, err
	}

	internalMetrics := router.Group("/internal")
	internalMetrics.Use(middleware.InternalTokenAuth(internalToken))
	internalMetrics.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &integrationEnv{
		pool:            pool,
		router:          router,
		privateKey:      privateKey,
		adminID:         adminID,
		adminUsername:   "admin_integration",
		baristaID:       baristaID,
		baristaUsername: "barista_integration",
		staffRepo:       staffRepo,
		clientRepo:      clientRepo,
		visitRepo:       visitRepo,
		clientSvc:       clientSvc,
		scanSvc:         scanSvc,
		menuSvc:         menuSvc,
		financeSvc:      financeSvc,
		exportSvc:       exportSvc,
		authSvc:         authSvc,
		sseHub:          sseHub,
		gateway:         gateway,
	}, nil
}

func setPublicKeyEnv(privateKey *rsa.PrivateKey) error {
	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return err
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyDER,
	})
	return os.Setenv("CAFEHUB_JWT_PUBLIC_KEY", string(publicPEM))
}

func applyAllMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		// #nosec G304 -- migration file list comes from controlled test directory.
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			return err
		}
	}

	return nil
}

func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if stat, err := os.Stat(candidate); err == nil && stat.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate migrations directory")
		}
		dir = parent
	}
}

func seedStaff(
	ctx context.Context,
	repo repository.StaffRepository,
	username string,
	password string,
	role string,
) (uuid.UUID, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}

	staff := &model.Staff{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := repo.Create(ctx, staff); err != nil {
		return uuid.Nil, err
	}

	return staff.ID, nil
}

func getEnv(t *testing.T) *integrationEnv {
	t.Helper()
	if suite == nil {
		t.Fatal("integration environment not initialized")
	}
	return suite
}

func loginAs(t *testing.T, username string, password string) string {
	t.Helper()

	accessToken, _, err := getEnv(t).authSvc.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("service login failed: %v", err)
	}
	return accessToken
}

func loginSession(t *testing.T, username string, password string) loginSessionResult {
	t.Helper()
	env := getEnv(t)

	resp := performJSONRequest(
		t,
		env.router,
		http.MethodPost,
		"/api/v1/auth/login",
		map[string]interface{}{
			"username": username,
			"password": password,
		},
		nil,
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("login failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}

	result := loginSessionResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		AllCookies:   resp.Result().Cookies(),
	}
	for _, cookie := range result.AllCookies {
		if cookie == nil {
			continue
		}
		if cookie.Name == "access_token" {
			result.AccessCookie = cookie
		}
	}

	return result
}

func authHeader(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

func createClient(t *testing.T, token string, name string) *model.Client {
	t.Helper()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/clients",
		map[string]interface{}{
			"name": name,
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("create client failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("create client failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var client model.Client
	if err := json.Unmarshal(envelope.Data, &client); err != nil {
		t.Fatalf("decode client payload: %v", err)
	}

	return &client
}

func createIngredient(t *testing.T, token string, name string, unit string, price string) *model.Ingredient {
	t.Helper()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/ingredients",
		map[string]interface{}{
			"name":           name,
			"unit":           unit,
			"price_per_unit": mustDecimal(t, price),
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("create ingredient failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("create ingredient failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var ingredient model.Ingredient
	if err := json.Unmarshal(envelope.Data, &ingredient); err != nil {
		t.Fatalf("decode ingredient payload: %v", err)
	}

	return &ingredient
}

func createDish(t *testing.T, token string, name string, price string) *model.Dish {
	t.Helper()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/dishes",
		map[string]interface{}{
			"name":     name,
			"price":    mustDecimal(t, price),
			"category": "завтраки",
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("create dish failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("create dish failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var dish model.Dish
	if err := json.Unmarshal(envelope.Data, &dish); err != nil {
		t.Fatalf("decode dish payload: %v", err)
	}

	return &dish
}

func setRecipeItem(t *testing.T, token string, dishID int64, ingredientID int64, quantity string) {
	t.Helper()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPut,
		fmt.Sprintf("/api/v1/dishes/%d/recipe", dishID),
		map[string]interface{}{
			"ingredient_id": ingredientID,
			"quantity":      mustDecimal(t, quantity),
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("set recipe item failed, status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func performJSONRequest(
	t *testing.T,
	handler http.Handler,
	method string,
	path string,
	payload interface{},
	headers map[string]string,
	cookies []*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for _, cookie := range cookies {
		if cookie != nil {
			req.AddCookie(cookie)
		}
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var envelope apiEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response body: %v, raw=%s", err, resp.Body.String())
	}
	return envelope
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal failed: %v", err)
	}
	return value
}

func responseCode(resp *httptest.ResponseRecorder) int {
	if resp == nil {
		return response.ErrInternal
	}
	envelope := apiEnvelope{}
	_ = json.Unmarshal(resp.Body.Bytes(), &envelope)
	return envelope.Code
}
