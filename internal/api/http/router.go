package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sellora/storefront/internal/guard"
	"github.com/sellora/storefront/internal/logger"
)

// routeDef binds a handler to a path with the access metadata the guard
// reads. The table mirrors the storefront's navigation structure: catalog,
// cart, checkout and order history require a session, the home and auth
// screens do not.
type routeDef struct {
	method       string
	path         string
	requiresAuth bool
	handler      gin.HandlerFunc
}

// NewRouter assembles the gin engine with logging and per-route guarding.
func NewRouter(h *Handler, g *guard.Guard, l *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), Logging(l))

	routes := []routeDef{
		{method: "GET", path: "/", requiresAuth: false, handler: h.home},
		{method: "GET", path: "/session", requiresAuth: false, handler: h.sessionInfo},
		{method: "POST", path: "/login", requiresAuth: false, handler: h.login},
		{method: "POST", path: "/register", requiresAuth: false, handler: h.register},
		{method: "POST", path: "/logout", requiresAuth: false, handler: h.logout},
		{method: "GET", path: "/products", requiresAuth: true, handler: h.listProducts},
		{method: "GET", path: "/products/:id", requiresAuth: true, handler: h.getProduct},
		{method: "GET", path: "/cart", requiresAuth: true, handler: h.cartView},
		{method: "POST", path: "/cart/items", requiresAuth: true, handler: h.addCartItem},
		{method: "PUT", path: "/cart/items/:id", requiresAuth: true, handler: h.updateCartItem},
		{method: "DELETE", path: "/cart/items/:id", requiresAuth: true, handler: h.removeCartItem},
		{method: "DELETE", path: "/cart", requiresAuth: true, handler: h.clearCart},
		{method: "POST", path: "/checkout", requiresAuth: true, handler: h.checkout},
		{method: "GET", path: "/orders", requiresAuth: true, handler: h.listOrders},
		{method: "GET", path: "/orders/:id", requiresAuth: true, handler: h.getOrder},
	}

	for _, r := range routes {
		to := guard.Route{Path: r.path, RequiresAuth: r.requiresAuth}
		engine.Handle(r.method, r.path, Guarded(g, to), r.handler)
	}

	return engine
}
