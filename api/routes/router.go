package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clickmarket/clickmarket-backend/api/controllers"
	"github.com/clickmarket/clickmarket-backend/api/middleware"
	"github.com/clickmarket/clickmarket-backend/internal/cart"
	"github.com/clickmarket/clickmarket-backend/internal/favorites"
	"github.com/clickmarket/clickmarket-backend/internal/orders"
	"github.com/clickmarket/clickmarket-backend/internal/products"
	"github.com/clickmarket/clickmarket-backend/internal/users"
	"github.com/clickmarket/clickmarket-backend/internal/zones"
	"github.com/clickmarket/clickmarket-backend/pkg/config"
	"github.com/clickmarket/clickmarket-backend/pkg/db"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
	"github.com/clickmarket/clickmarket-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Cart      cart.Service
	Orders    orders.Service
	Products  products.Service
	Zones     zones.Service
	Favorites favorites.Service
	Users     users.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	// Public catalog.
	r.Get("/produits", controllers.ProductList(deps.Products, logg))
	r.Get("/produits/{productId}", controllers.ProductDetail(deps.Products, logg))
	r.Get("/zones", controllers.ZoneList(deps.Zones, logg))

	// Cart routes serve guests and logged-in users alike.
	r.Route("/panier", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, logg))
		r.Get("/", controllers.CartFetch(deps.Cart, logg))
		r.Post("/article", controllers.CartAddItem(deps.Cart, logg))
		r.Put("/article/{articleId}", controllers.CartUpdateItem(deps.Cart, logg))
		r.Delete("/article/{articleId}", controllers.CartRemoveItem(deps.Cart, logg))
		r.Delete("/vider", controllers.CartClear(deps.Cart, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Post("/merge", controllers.CartMerge(deps.Cart, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/commandes", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.With(middleware.RequireAnyRole(logg, "admin", "supplier")).
				Patch("/{orderId}/statut", controllers.OrderUpdateStatus(deps.Orders, logg))
			r.With(middleware.RequireAnyRole(logg, "admin", "supplier")).
				Patch("/{orderId}/paiement", controllers.OrderUpdatePayment(deps.Orders, logg))
			r.Patch("/{orderId}/annuler", controllers.OrderCancel(deps.Orders, logg))
			r.Post("/{orderId}/commentaires", controllers.OrderAddComment(deps.Orders, logg))
		})

		r.Route("/favoris", func(r chi.Router) {
			r.Get("/", controllers.FavoriteList(deps.Favorites, logg))
			r.Post("/{productId}", controllers.FavoriteAdd(deps.Favorites, logg))
			r.Delete("/{productId}", controllers.FavoriteRemove(deps.Favorites, logg))
		})

		r.Get("/profil", controllers.UserProfile(deps.Users, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/produits", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(deps.Products, deps.Users, logg))
			r.Put("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
		})

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", controllers.AdminZoneList(deps.Zones, logg))
			r.Post("/", controllers.AdminZoneCreate(deps.Zones, logg))
			r.Put("/{zoneId}", controllers.AdminZoneUpdate(deps.Zones, logg))
		})
	})

	return r
}
