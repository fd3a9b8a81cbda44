package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pizzastock/backend/api/controllers"
	"github.com/pizzastock/backend/api/middleware"
	"github.com/pizzastock/backend/internal/cart"
	"github.com/pizzastock/backend/internal/catalog"
	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/internal/payments"
	"github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/config"
	"github.com/pizzastock/backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	DB    controllers.Pinger
	Redis controllers.Pinger

	Catalog  catalog.Service
	Ledger   ledger.Service
	Sales    sales.Service
	Orders   orders.Service
	Payments payments.Service
	Cart     cart.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))

		r.Route("/branches", func(r chi.Router) {
			r.Post("/", controllers.CreateBranch(deps.Catalog, logg))
			r.Get("/", controllers.ListBranches(deps.Catalog, logg))
			r.Get("/{branchId}", controllers.GetBranch(deps.Catalog, logg))
			r.Patch("/{branchId}", controllers.UpdateBranch(deps.Catalog, logg))
			r.Post("/{branchId}/deactivate", controllers.DeactivateBranch(deps.Catalog, logg))

			r.Get("/{branchId}/stock", controllers.BranchStock(deps.Ledger, logg))
			r.Post("/{branchId}/stock/adjust", controllers.AdjustStock(deps.Ledger, logg))
			r.Get("/{branchId}/stock/{skuId}/reconcile", controllers.ReconcileStock(deps.Ledger, logg))
			r.Put("/{branchId}/stock/{skuId}/safety-stock", controllers.SetSafetyStock(deps.Ledger, logg))
		})

		r.Route("/skus", func(r chi.Router) {
			r.Post("/", controllers.CreateSKU(deps.Catalog, logg))
			r.Get("/", controllers.ListSKUs(deps.Catalog, logg))
			r.Get("/{skuId}", controllers.GetSKU(deps.Catalog, logg))
			r.Patch("/{skuId}", controllers.UpdateSKU(deps.Catalog, logg))
			r.Post("/{skuId}/deactivate", controllers.DeactivateSKU(deps.Catalog, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/transfer", controllers.TransferStock(deps.Ledger, logg))
			r.Get("/low", controllers.LowStock(deps.Ledger, logg))
			r.Get("/transactions", controllers.StockHistory(deps.Ledger, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/number/{orderNumber}", controllers.GetOrderByNumber(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderId}/pay", controllers.MarkOrderPaid(deps.Orders, logg))
			r.Post("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Get("/{orderId}/payments", controllers.ListOrderPayments(deps.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.InitiatePayment(deps.Payments, logg))
			r.Get("/{paymentId}", controllers.GetPayment(deps.Payments, logg))
			r.Post("/{paymentId}/callback", controllers.PaymentCallback(deps.Payments, logg))
			if !cfg.App.IsProd() {
				// Dev-only alias the checkout URL points at; real gateways
				// hit /callback.
				r.Post("/{paymentId}/simulate", controllers.PaymentCallback(deps.Payments, logg))
			}
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.SessionContext())
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{skuId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{skuId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Get("/quote", controllers.CartQuote(deps.Cart, logg))
		})

		r.Post("/sales", controllers.RecordQuickSale(deps.Sales, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/top-sellers", controllers.TopSellers(deps.Sales, logg))
			r.Get("/sales", controllers.SalesByPeriod(deps.Sales, logg))
			r.Post("/daily-sales/aggregate", controllers.AggregateDailySales(deps.Sales, logg))
		})
	})

	return r
}
