package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
)

// ProductService is the small catalog surface used to seed stock
type ProductService struct {
	store CatalogStore
	now   func() time.Time
}

func NewProductService(store CatalogStore) *ProductService {
	return &ProductService{store: store, now: time.Now}
}

func (p *ProductService) Create(ctx context.Context, shopID primitive.ObjectID, prod *models.Product) (*models.Product, error) {
	if prod.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if prod.DiscountPrice <= 0 {
		return nil, apperr.Invalid("discountPrice must be positive")
	}
	if prod.OriginalPrice != 0 && prod.OriginalPrice < prod.DiscountPrice {
		return nil, apperr.Invalid("originalPrice cannot be below discountPrice")
	}
	if prod.Stock < 0 {
		return nil, apperr.Invalid("stock cannot be negative")
	}
	prod.ShopID = shopID
	prod.SoldOut = 0
	prod.CreatedAt = p.now()
	if err := p.store.CreateProduct(ctx, prod); err != nil {
		return nil, translate(err, "create product")
	}
	return prod, nil
}

func (p *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	prod, err := p.store.FindItem(ctx, id)
	if err != nil {
		return nil, translate(err, "find product")
	}
	return prod, nil
}

// ProductPage is one page of the catalog.
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"totalPages"`
}

func (p *ProductService) List(ctx context.Context, kind string, shopID *primitive.ObjectID, page models.Page) (*ProductPage, error) {
	list, total, err := p.store.ListProducts(ctx, kind, shopID, page)
	if err != nil {
		return nil, translate(err, "list products")
	}
	return &ProductPage{Products: list, Page: page.Page, Limit: page.Limit, Total: total, TotalPages: page.TotalPages(total)}, nil
}
