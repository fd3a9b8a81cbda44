package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/pizzastock/backend/internal/cart"
	catalogsvc "github.com/pizzastock/backend/internal/catalog"
	"github.com/pizzastock/backend/pkg/config"
	"github.com/pizzastock/backend/pkg/db/models"
	"github.com/pizzastock/backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubCatalog struct {
	catalogsvc.Service
	branches []models.Branch
}

func (s *stubCatalog) ListBranches(context.Context, bool) ([]models.Branch, error) {
	return s.branches, nil
}

type stubCart struct {
	cartsvc.Service
	lastToken string
}

func (s *stubCart) Get(_ context.Context, token string) (cartsvc.Cart, error) {
	s.lastToken = token
	return cartsvc.Cart{}, nil
}

func testConfig(env string) *config.Config {
	return &config.Config{App: config.AppConfig{Env: env, Port: "8080"}}
}

func testRouter(cfg *config.Config, catalog catalogsvc.Service, cart cartsvc.Service, reg *prometheus.Registry) http.Handler {
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Registry: reg,
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Catalog:  catalog,
		Cart:     cart,
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(testConfig("dev"), &stubCatalog{}, &stubCart{}, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if got := resp.Header().Get("X-PizzaStock-Env"); got != "dev" {
			t.Fatalf("%s: unexpected env header %q", path, got)
		}
	}
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	router := NewRouter(Deps{
		Config:  testConfig("dev"),
		Logger:  logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DB:      stubPinger{},
		Redis:   stubPinger{err: context.DeadlineExceeded},
		Catalog: &stubCatalog{},
		Cart:    &stubCart{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsRouteExposedWhenRegistryWired(t *testing.T) {
	router := testRouter(testConfig("dev"), &stubCatalog{}, &stubCart{}, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	router := testRouter(testConfig("dev"), &stubCatalog{}, &stubCart{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestBranchListRouteWired(t *testing.T) {
	catalog := &stubCatalog{branches: []models.Branch{{Name: "Makati", Code: "MKT-01"}}}
	router := testRouter(testConfig("dev"), catalog, &stubCart{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/branches", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data []models.Branch `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Code != "MKT-01" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestCartRouteLiftsSessionHeader(t *testing.T) {
	cart := &stubCart{}
	router := testRouter(testConfig("dev"), &stubCatalog{}, cart, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Token", "tok-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if cart.lastToken != "tok-abc" {
		t.Fatalf("expected session token forwarded, got %q", cart.lastToken)
	}
}

func TestSimulateRouteDisabledInProd(t *testing.T) {
	router := testRouter(testConfig("prod"), &stubCatalog{}, &stubCart{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+dummyUUID+"/simulate",
		strings.NewReader(`{"outcome": "success"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected simulate route absent in prod, got %d", resp.Code)
	}
}

const dummyUUID = "2c9a7b50-6d3e-4b2a-9f1c-8e5d4a3b2c1d"
