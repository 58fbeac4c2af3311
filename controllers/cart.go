package controllers

import (
	"net/http"
	"time"

	"go-marketplace/services"
	"go-marketplace/utils"
)

// CartController handles the customer's persisted cart
type CartController struct {
	handler
	Cart *services.CartService
}

func NewCartController(cart *services.CartService, timeout time.Duration) *CartController {
	return &CartController{handler: handler{timeout: timeout}, Cart: cart}
}

type addToCartRequest struct {
	ProductID         string  `json:"productId" validate:"required"`
	Quantity          float64 `json:"quantity"`
	SelectedVariation string  `json:"selectedVariation"`
}

type updateCartRequest struct {
	Quantity float64 `json:"quantity"`
}

type removeCartRequest struct {
	CartItems []string `json:"cartItems"`
}

// AddToCart sets the quantity of a product in the cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	productID, err := services.ParseID(req.ProductID, "productId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	qty, err := services.ValidateQuantity(req.Quantity)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()

	item, err := cc.Cart.AddItem(ctx, p.User.ID, productID, qty, req.SelectedVariation)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "cart updated", "cartItem": item})
}

func (cc *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req updateCartRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	qty, err := services.ValidateQuantity(req.Quantity)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()

	item, err := cc.Cart.UpdateItem(ctx, p.User.ID, itemID, qty)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"cartItem": item})
}

// RemoveFromCart removes a single line
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()

	if err := cc.Cart.RemoveItem(ctx, p.User.ID, itemID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"message": "item removed from cart"})
}

// RemoveMany deletes the lines listed in cartItems
func (cc *CartController) RemoveMany(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req removeCartRequest
	if err := decode(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()

	n, err := cc.Cart.RemoveItems(ctx, p.User.ID, req.CartItems)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"deletedCount": n})
}

// GetCart returns the cart with live prices and a price summary
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()

	view, err := cc.Cart.Get(ctx, p.User.ID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.M{"cartItems": view.Items, "priceSummary": view.PriceSummary})
}
