package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 99")
	ErrCartItemNotFound   = errors.New("item not in cart")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCustomer    = errors.New("customer name, email and shipping address are required")
	ErrMixedCurrency      = errors.New("cart mixes currencies")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 99

// DefaultOrderListLimit caps the admin orders listing.
const DefaultOrderListLimit = 200

// CartLine is a cart item priced with its current product.
type CartLine struct {
	domain.CartItem
	ProductName    string `json:"productName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	LineTotalCents int64  `json:"lineTotalCents"`
	PhotoURL       string `json:"photoUrl"`
	Available      bool   `json:"available"`
}

// CartView is the priced cart returned to visitors.
type CartView struct {
	ID         string     `json:"id"`
	Items      []CartLine `json:"items"`
	TotalCents int64      `json:"totalCents"`
	Currency   string     `json:"currency,omitempty"`
}

// CreateProductInput describes a new print product.
type CreateProductInput struct {
	Name        string
	Description string
	PrintSize   string
	PriceCents  int64
	Currency    string
}

// CheckoutInput carries the customer details captured at checkout.
type CheckoutInput struct {
	CustomerName  string
	CustomerEmail string
	Shipping      domain.ShippingAddress
}

// ShopService implements the print-shop flow: products, carts and orders.
type ShopService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error)

	GetCart(ctx context.Context, cartID string) (*CartView, error)
	AddToCart(ctx context.Context, cartID string, item domain.CartItem) (*CartView, error)
	// UpdateQuantity sets the quantity of an existing line; zero removes it.
	UpdateQuantity(ctx context.Context, cartID string, item domain.CartItem) (*CartView, error)
	ClearCart(ctx context.Context, cartID string) error

	// Checkout turns the cart into a pending order and empties the cart.
	Checkout(ctx context.Context, cartID string, in CheckoutInput) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type shopService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	fileStorage storage.ObjectStorage
	log         *logrus.Entry
	now         func() time.Time
}

// NewShopService creates the print-shop service.
func NewShopService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	fileStorage storage.ObjectStorage,
	log *logrus.Logger,
) ShopService {
	return &shopService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		fileStorage: fileStorage,
		log:         log.WithField("component", "shop"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// === Products ===

func (s *shopService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *shopService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if name == "" || in.PriceCents <= 0 || len(currency) != 3 {
		return nil, ErrInvalidProduct
	}

	product := &domain.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PrintSize:   strings.TrimSpace(in.PrintSize),
		PriceCents:  in.PriceCents,
		Currency:    currency,
		Active:      true,
		CreatedAt:   s.now(),
	}
	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	product.ID = id
	return product, nil
}

// === Cart ===

func (s *shopService) loadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.Cart{ID: cartID, Items: []domain.CartItem{}}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func (s *shopService) saveCart(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = s.now()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *shopService) GetCart(ctx context.Context, cartID string) (*CartView, error) {
	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.priceCart(ctx, cart)
}

func (s *shopService) AddToCart(ctx context.Context, cartID string, item domain.CartItem) (*CartView, error) {
	if item.Quantity < 1 || item.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	product, err := s.activeProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPhoto(ctx, item.Category, item.Filename); err != nil {
		return nil, err
	}
	item.ProductID = product.ID.Hex()

	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].LineID() == item.LineID() {
			total := cart.Items[i].Quantity + item.Quantity
			if total > MaxQuantity {
				return nil, ErrInvalidQuantity
			}
			cart.Items[i].Quantity = total
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.priceCart(ctx, cart)
}

func (s *shopService) UpdateQuantity(ctx context.Context, cartID string, item domain.CartItem) (*CartView, error) {
	if item.Quantity < 0 || item.Quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].LineID() == item.LineID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCartItemNotFound
	}
	if item.Quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = item.Quantity
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.priceCart(ctx, cart)
}

func (s *shopService) ClearCart(ctx context.Context, cartID string) error {
	if err := s.cartRepo.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *shopService) activeProduct(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.Active {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// checkPhoto makes sure the print refers to a published gallery photo.
func (s *shopService) checkPhoto(ctx context.Context, category, filename string) error {
	if !validCategory(category) || !validFilename(filename) {
		return ErrPhotoNotFound
	}
	if _, err := s.fileStorage.StatObject(ctx, domain.PhotoKey(category, filename)); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("stat photo: %w", err)
	}
	return nil
}

// priceCart prices every line with the current product. Lines whose product
// was removed or deactivated are kept but marked unavailable.
func (s *shopService) priceCart(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	view := &CartView{ID: cart.ID, Items: make([]CartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := CartLine{
			CartItem: item,
			PhotoURL: PhotoURL(item.Category, item.Filename),
		}
		product, err := s.activeProduct(ctx, item.ProductID)
		switch {
		case err == nil:
			line.Available = true
			line.ProductName = product.Name
			line.UnitPriceCents = product.PriceCents
			line.LineTotalCents = product.PriceCents * int64(item.Quantity)
			view.TotalCents += line.LineTotalCents
			if view.Currency == "" {
				view.Currency = product.Currency
			}
		case errors.Is(err, ErrProductNotFound):
		default:
			return nil, err
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// === Orders ===

func (s *shopService) Checkout(ctx context.Context, cartID string, in CheckoutInput) (*domain.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	if in.CustomerName == "" || !strings.Contains(in.CustomerEmail, "@") ||
		strings.TrimSpace(in.Shipping.Line1) == "" || strings.TrimSpace(in.Shipping.City) == "" ||
		strings.TrimSpace(in.Shipping.PostalCode) == "" || strings.TrimSpace(in.Shipping.Country) == "" {
		return nil, ErrInvalidCustomer
	}

	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		Shipping:      in.Shipping,
		Items:         make([]domain.OrderItem, 0, len(cart.Items)),
		Status:        domain.OrderStatusPending,
	}
	for _, item := range cart.Items {
		product, err := s.activeProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if order.Currency == "" {
			order.Currency = product.Currency
		} else if order.Currency != product.Currency {
			return nil, ErrMixedCurrency
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Category:       item.Category,
			Filename:       item.Filename,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
		order.TotalCents += product.PriceCents * int64(item.Quantity)
	}

	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	id, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.ID = id

	// A failed clear does not undo the order
	if err := s.cartRepo.Delete(ctx, cartID); err != nil {
		s.log.WithError(err).WithField("order", id.Hex()).Warn("failed to clear cart after checkout")
	}
	metrics.RecordOrderPlaced()
	s.log.WithFields(logrus.Fields{"order": id.Hex(), "totalCents": order.TotalCents}).Info("order placed")
	return order, nil
}

func (s *shopService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orderRepo.List(ctx, DefaultOrderListLimit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *shopService) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}
