package controllers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// ProductController handles catalog requests
type ProductController struct {
	handler
	Products *services.ProductService
}

func NewProductController(products *services.ProductService, timeout time.Duration) *ProductController {
	return &ProductController{handler: handler{timeout: timeout}, Products: products}
}

type productRequest struct {
	Kind          string   `json:"kind" validate:"omitempty,oneof=product event"`
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	DiscountPrice float64  `json:"discountPrice" validate:"required,gt=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Images        []string `json:"images"`
}

// CreateProduct adds a product or event to the seller's shop
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()

	kind := models.KindProduct
	if req.Kind == "event" {
		kind = models.KindEvent
	}
	product, err := pc.Products.Create(ctx, p.Shop.ID, &models.Product{
		Kind:          kind,
		Name:          req.Name,
		Description:   req.Description,
		OriginalPrice: req.OriginalPrice,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Images:        req.Images,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.M{"product": product})
}

// GetProducts lists products, or events with ?kind=event, optionally for one ?shopId.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := models.KindProduct
	if q.Get("kind") == "event" {
		kind = models.KindEvent
	}
	var shopID *primitive.ObjectID
	if raw := q.Get("shopId"); raw != "" {
		id, err := services.ParseID(raw, "shopId")
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		shopID = &id
	}
	ctx, cancel := pc.context(r)
	defer cancel()

	result, err := pc.Products.List(ctx, kind, shopID, page(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{
		"products":   result.Products,
		"page":       result.Page,
		"limit":      result.Limit,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

// GetProductByID looks a product up in products, then events
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := pc.context(r)
	defer cancel()

	product, err := pc.Products.Get(ctx, id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"product": product})
}
