package api

import (
	"fmt"
	"net/http"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CartCookieName holds the visitor cart id.
const CartCookieName = "cart_id"

// ShopHandler serves the print shop.
type ShopHandler struct {
	shopService  service.ShopService
	cartMaxAge   int
	secureCookie bool
	log          *logrus.Logger
}

// NewShopHandler creates a new ShopHandler. cartMaxAge is the cookie lifetime in seconds.
func NewShopHandler(shopService service.ShopService, cartMaxAge int, secureCookie bool, log *logrus.Logger) *ShopHandler {
	return &ShopHandler{
		shopService:  shopService,
		cartMaxAge:   cartMaxAge,
		secureCookie: secureCookie,
		log:          log,
	}
}

// --- Request/Response Structs ---

type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Category  string `json:"category" binding:"required,slug"`
	Filename  string `json:"filename" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0,max=99"`
}

func (r CartItemRequest) toDomain() domain.CartItem {
	return domain.CartItem{
		ProductID: r.ProductID,
		Category:  r.Category,
		Filename:  r.Filename,
		Quantity:  r.Quantity,
	}
}

type CheckoutRequest struct {
	CustomerName  string                 `json:"customerName" binding:"required,max=200"`
	CustomerEmail string                 `json:"customerEmail" binding:"required,email"`
	Shipping      domain.ShippingAddress `json:"shipping"`
}

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	PrintSize   string `json:"printSize" binding:"max=50"`
	PriceCents  int64  `json:"priceCents" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

type OrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required,oneof=pending paid shipped cancelled"`
}

// cartID returns the visitor cart id from its cookie. When create is set and
// the visitor has none, a new id is issued.
func (h *ShopHandler) cartID(c *gin.Context, create bool) string {
	if id, err := c.Cookie(CartCookieName); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	if !create {
		return ""
	}
	id := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CartCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   h.cartMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// --- Handler Methods ---

// ListProducts godoc
// @Summary List print products
// @Tags Shop
// @Produce json
// @Success 200 {array} domain.Product
// @Router /shop/products [get]
func (h *ShopHandler) ListProducts(c *gin.Context) {
	products, err := h.shopService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "list products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// GetCart godoc
// @Summary Get the visitor cart
// @Tags Shop
// @Produce json
// @Success 200 {object} service.CartView
// @Router /shop/cart [get]
func (h *ShopHandler) GetCart(c *gin.Context) {
	id := h.cartID(c, false)
	if id == "" {
		c.JSON(http.StatusOK, service.CartView{Items: []service.CartLine{}})
		return
	}
	view, err := h.shopService.GetCart(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "load the cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddToCart godoc
// @Summary Add a print to the cart
// @Description Adding the same print of the same photo again increases its quantity.
// @Tags Shop
// @Accept json
// @Produce json
// @Param item body CartItemRequest true "Cart line"
// @Success 200 {object} service.CartView
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Unknown product or photo"
// @Router /shop/cart/items [post]
func (h *ShopHandler) AddToCart(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.shopService.AddToCart(c.Request.Context(), h.cartID(c, true), req.toDomain())
	if err != nil {
		respondError(c, h.log, err, "add to the cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateCartItem godoc
// @Summary Change the quantity of a cart line
// @Description A quantity of zero removes the line.
// @Tags Shop
// @Accept json
// @Produce json
// @Param item body CartItemRequest true "Cart line with new quantity"
// @Success 200 {object} service.CartView
// @Failure 404 {object} gin.H "Line not in cart"
// @Router /shop/cart/items [put]
func (h *ShopHandler) UpdateCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id := h.cartID(c, false)
	if id == "" {
		abortWithError(c, http.StatusNotFound, service.ErrCartItemNotFound.Error())
		return
	}
	view, err := h.shopService.UpdateQuantity(c.Request.Context(), id, req.toDomain())
	if err != nil {
		respondError(c, h.log, err, "update the cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart godoc
// @Summary Empty the cart
// @Tags Shop
// @Success 204 "Cart cleared"
// @Router /shop/cart [delete]
func (h *ShopHandler) ClearCart(c *gin.Context) {
	if id := h.cartID(c, false); id != "" {
		if err := h.shopService.ClearCart(c.Request.Context(), id); err != nil {
			respondError(c, h.log, err, "clear the cart")
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// Checkout godoc
// @Summary Place an order
// @Description Turns the cart into a pending order. Payment is arranged separately.
// @Tags Shop
// @Accept json
// @Produce json
// @Param order body CheckoutRequest true "Customer details"
// @Success 201 {object} domain.Order
// @Failure 400 {object} gin.H "Invalid input or empty cart"
// @Router /shop/checkout [post]
func (h *ShopHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id := h.cartID(c, false)
	if id == "" {
		abortWithError(c, http.StatusBadRequest, service.ErrEmptyCart.Error())
		return
	}
	order, err := h.shopService.Checkout(c.Request.Context(), id, service.CheckoutInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Shipping:      req.Shipping,
	})
	if err != nil {
		respondError(c, h.log, err, "place the order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// CreateProduct godoc
// @Summary Add a print product
// @Tags Admin
// @Accept json
// @Produce json
// @Param product body CreateProductRequest true "Product"
// @Success 201 {object} domain.Product
// @Router /admin/products [post]
func (h *ShopHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	product, err := h.shopService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PrintSize:   req.PrintSize,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
	})
	if err != nil {
		respondError(c, h.log, err, "create the product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListOrders godoc
// @Summary List orders, newest first
// @Tags Admin
// @Produce json
// @Success 200 {array} domain.Order
// @Router /admin/orders [get]
func (h *ShopHandler) ListOrders(c *gin.Context) {
	orders, err := h.shopService.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "list orders")
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus godoc
// @Summary Move an order to a new status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param status body OrderStatusRequest true "Status"
// @Success 200 {object} domain.Order
// @Failure 404 {object} gin.H "Not found"
// @Router /admin/orders/{id}/status [put]
func (h *ShopHandler) UpdateOrderStatus(c *gin.Context) {
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	order, err := h.shopService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err, "update the order")
		return
	}
	c.JSON(http.StatusOK, order)
}
