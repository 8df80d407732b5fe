// Package http serves the storefront routes and applies the navigation
// guard to each of them.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sellora/storefront/internal/cart"
	"github.com/sellora/storefront/internal/catalog"
	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
	"github.com/sellora/storefront/internal/order"
	"github.com/sellora/storefront/internal/session"
)

// Handler bundles the stores and services behind the storefront routes.
type Handler struct {
	sessions *session.Store
	cart     *cart.Store
	catalog  *catalog.Service
	orders   *order.Service
	logger   *logger.Logger
}

// NewHandler creates the storefront handler set.
func NewHandler(
	sessions *session.Store,
	cartStore *cart.Store,
	catalogService *catalog.Service,
	orderService *order.Service,
	l *logger.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		cart:     cartStore,
		catalog:  catalogService,
		orders:   orderService,
		logger:   l,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "storefront"})
}

func (h *Handler) sessionInfo(c *gin.Context) {
	sess := h.sessions.Current()
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user_id":       sess.User.ID,
		"email":         sess.User.Email,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity service unavailable"})
		return
	}

	h.sessionInfo(c)
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already taken"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity service unavailable"})
		return
	}

	h.sessionInfo(c)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) cartView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": h.cart.Items(),
		"total": h.cart.Total(),
	})
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load product"})
		return
	}

	h.cart.Add(product, req.Quantity)
	h.cartView(c)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.cart.UpdateQuantity(c.Param("id"), req.Quantity)
	h.cartView(c)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	h.cart.Remove(c.Param("id"))
	h.cartView(c)
}

func (h *Handler) clearCart(c *gin.Context) {
	h.cart.Clear()
	h.cartView(c)
}

func (h *Handler) checkout(c *gin.Context) {
	var details model.CheckoutDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.orders.Checkout(c.Request.Context(), details, h.cart.Items())
	if errors.Is(err, model.ErrNotAuthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "checkout failed"})
		return
	}

	h.cart.Clear()
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	found, err := h.orders.Get(c.Request.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, found)
}
