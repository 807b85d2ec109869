package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/dperea/storefront-backend/internal/auth"
	"github.com/dperea/storefront-backend/internal/notifications"
	"github.com/dperea/storefront-backend/internal/orders"
	"github.com/dperea/storefront-backend/internal/products"
	pkgAuth "github.com/dperea/storefront-backend/pkg/auth"
	"github.com/dperea/storefront-backend/pkg/config"
	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/metrics"
	"github.com/dperea/storefront-backend/pkg/oid"
	"github.com/dperea/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.UserDTO, error) {
	return &authsvc.UserDTO{}, nil
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return &authsvc.LoginResponse{}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Get(ctx context.Context, id oid.ID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) List(ctx context.Context) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductService) Search(ctx context.Context, name string) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductService) ListMine(ctx context.Context, creator oid.ID) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductService) Update(ctx context.Context, id oid.ID, input products.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductService) Delete(ctx context.Context, id oid.ID) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Place(ctx context.Context, input orders.PlaceOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) UpdateItems(ctx context.Context, input orders.UpdateOrderItemsInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ChangeStatus(ctx context.Context, input orders.ChangeStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ListAll(ctx context.Context) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) ListMine(ctx context.Context, userID oid.ID) ([]models.Order, error) {
	return []models.Order{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	hub := notifications.NewHub(1, nil, logg)
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		metrics.NewRegistry(),
		stubAuthService{},
		stubProductService{},
		stubOrdersService{},
		hub,
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live probe got %d", resp.Code)
	}
}

func TestOrdersRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/my-orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestListOrdersRequiresSuperAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	plain.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, plain)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-superadmin got %d", resp.Code)
	}

	super := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	super.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSuperAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, super)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for superadmin got %d", resp.Code)
	}
}

func TestPlaceOrderRequiresUserRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	admin := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", strings.NewReader(`{"items":[{"product":"1","quantity":1}]}`))
	admin.Header.Set("Content-Type", "application/json")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin placing order got %d", resp.Code)
	}
}

func TestStatusChangeRequiresSuperAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	orderID := oid.New().String()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID+"/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-superadmin status change got %d", resp.Code)
	}
}

func TestCatalogWritesRequirePrivilegedRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"name":"Widget","priceCents":100,"stock":5}`

	plain := httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader(body))
	plain.Header.Set("Content-Type", "application/json")
	plain.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, plain)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user creating product got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader(body))
	admin.Header.Set("Content-Type", "application/json")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin creating product got %d", resp.Code)
	}
}

func TestCatalogReadsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	list := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unauthenticated list got %d", resp.Code)
	}

	search := httptest.NewRequest(http.MethodGet, "/api/v1/products/search?name=widget", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, search)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unauthenticated search got %d", resp.Code)
	}
}

func TestMyProductsRequiresPrivilegedRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	anon := httptest.NewRequest(http.MethodGet, "/api/v1/products/my-products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/products/my-products", nil)
	plain.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, plain)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/products/my-products", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: oid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
