package services

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
)

// Cart limits.
const (
	MaxCartQuantity  = 999
	MaxBulkDeleteIDs = 100
)

// CartStores is the persistence the cart needs.
type CartStores interface {
	CartStore
	CatalogStore
}

// CartService stages items before checkout
type CartService struct {
	store CartStores
	now   func() time.Time
}

func NewCartService(store CartStores) *CartService {
	return &CartService{store: store, now: time.Now}
}

// ValidateQuantity accepts whole numbers in [1, 999].
func ValidateQuantity(q float64) (int, error) {
	if math.IsNaN(q) || q != math.Trunc(q) || q < 1 || q > MaxCartQuantity {
		return 0, apperr.Newf(apperr.Validation, apperr.CodeInvalidQuantity,
			"quantity must be a whole number between 1 and %d", MaxCartQuantity)
	}
	return int(q), nil
}

func outOfStock(p *models.Product) error {
	return apperr.Newf(apperr.Conflict, apperr.CodeOutOfStock, "only %d of %s left in stock", p.Stock, p.Name).
		WithDetail("availableStock", p.Stock)
}

// AddItem sets the quantity of a product in the cart. An existing line is replaced, not summed.
func (c *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int, variation string) (*models.CartItem, error) {
	if qty < 1 || qty > MaxCartQuantity {
		return nil, apperr.New(apperr.Validation, apperr.CodeInvalidQuantity, "quantity out of range")
	}
	p, err := c.store.FindItem(ctx, productID)
	if err != nil {
		return nil, translate(err, "find product")
	}
	if p.Stock < qty {
		return nil, outOfStock(p)
	}
	item, err := c.store.UpsertCartItem(ctx, &models.CartItem{
		UserID:            userID,
		ProductID:         productID,
		ProductType:       p.Kind,
		Quantity:          qty,
		SelectedVariation: variation,
		UpdatedAt:         c.now(),
	})
	if err != nil {
		return nil, translate(err, "save cart item")
	}
	return item, nil
}

// UpdateItem changes a line's quantity, checking stock of the stored product type.
func (c *CartService) UpdateItem(ctx context.Context, userID, itemID primitive.ObjectID, qty int) (*models.CartItem, error) {
	if qty < 1 || qty > MaxCartQuantity {
		return nil, apperr.New(apperr.Validation, apperr.CodeInvalidQuantity, "quantity out of range")
	}
	item, err := c.store.FindCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, translate(err, "find cart item")
	}
	p, err := c.store.FindItemOfKind(ctx, item.ProductType, item.ProductID)
	if err != nil {
		return nil, translate(err, "find product")
	}
	if p.Stock < qty {
		return nil, outOfStock(p)
	}
	updated, err := c.store.UpdateCartQuantity(ctx, userID, itemID, qty, c.now())
	if err != nil {
		return nil, translate(err, "update cart item")
	}
	return updated, nil
}

func (c *CartService) RemoveItem(ctx context.Context, userID, itemID primitive.ObjectID) error {
	n, err := c.store.DeleteCartItems(ctx, userID, []primitive.ObjectID{itemID})
	if err != nil {
		return translate(err, "delete cart item")
	}
	if n == 0 {
		return apperr.NotFoundf("cart item not found")
	}
	return nil
}

// RemoveItems deletes up to 100 lines by id and returns how many went away.
func (c *CartService) RemoveItems(ctx context.Context, userID primitive.ObjectID, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Invalid("cartItems must contain at least one id")
	}
	if len(ids) > MaxBulkDeleteIDs {
		return 0, apperr.Newf(apperr.Validation, apperr.CodeTooManyItems, "at most %d items can be removed at once", MaxBulkDeleteIDs)
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(id, "cart item id "+id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}
	n, err := c.store.DeleteCartItems(ctx, userID, oids)
	if err != nil {
		return 0, translate(err, "delete cart items")
	}
	if n == 0 {
		return 0, apperr.NotFoundf("no matching cart items")
	}
	return n, nil
}

// CartLine is a stored line joined with live product data.
type CartLine struct {
	models.CartItem
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images"`
	ShopID        string   `json:"shopId"`
	LineTotal     float64  `json:"lineTotal"`
}

// PriceSummary totals the cart in rupees.
type PriceSummary struct {
	TotalItems         int     `json:"totalItems"`
	Subtotal           float64 `json:"subtotal"`
	TotalOriginalPrice float64 `json:"totalOriginalPrice"`
	TotalDiscount      float64 `json:"totalDiscount"`
	Total              float64 `json:"total"`
	Currency           string  `json:"currency"`
	Savings            float64 `json:"savings"`
}

type CartView struct {
	Items        []CartLine   `json:"items"`
	PriceSummary PriceSummary `json:"priceSummary"`
}

// Get lists the cart with live prices. Lines whose product disappeared are skipped.
func (c *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*CartView, error) {
	items, err := c.store.ListCartItems(ctx, userID)
	if err != nil {
		return nil, translate(err, "list cart")
	}

	view := &CartView{Items: make([]CartLine, 0, len(items))}
	subtotal, original := decimal.Zero, decimal.Zero
	for _, item := range items {
		p, err := c.store.FindItemOfKind(ctx, item.ProductType, item.ProductID)
		if err != nil {
			log.WithError(err).WithField("product", item.ProductID.Hex()).Debug("skipping cart line")
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		line := decimal.NewFromFloat(p.UnitPrice()).Mul(qty)
		subtotal = subtotal.Add(line)
		original = original.Add(decimal.NewFromFloat(p.ListPrice()).Mul(qty))

		view.Items = append(view.Items, CartLine{
			CartItem:      item,
			Name:          p.Name,
			Price:         p.UnitPrice(),
			OriginalPrice: p.ListPrice(),
			Stock:         p.Stock,
			Images:        p.Images,
			ShopID:        p.ShopID.Hex(),
			LineTotal:     line.Round(2).InexactFloat64(),
		})
		view.PriceSummary.TotalItems += item.Quantity
	}

	discount := original.Sub(subtotal)
	view.PriceSummary.Subtotal = subtotal.Round(2).InexactFloat64()
	view.PriceSummary.TotalOriginalPrice = original.Round(2).InexactFloat64()
	view.PriceSummary.TotalDiscount = discount.Round(2).InexactFloat64()
	view.PriceSummary.Total = subtotal.Round(2).InexactFloat64()
	view.PriceSummary.Savings = discount.Round(2).InexactFloat64()
	view.PriceSummary.Currency = "INR"
	return view, nil
}
