package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/geofence"
	"go-marketplace/models"
)

// Shops evaluated when no shop is named.
const availabilityShopLimit = 20

// DeliveryStores is what availability checks read.
type DeliveryStores interface {
	ShopStore
	CatalogStore
}

// DeliveryService answers "can I get this delivered here?" without placing an order
type DeliveryService struct {
	store DeliveryStores
	geo   *geofence.Evaluator
}

func NewDeliveryService(store DeliveryStores, geo *geofence.Evaluator) *DeliveryService {
	return &DeliveryService{store: store, geo: geo}
}

// Availability is the outcome of a multi-shop check.
type Availability struct {
	Checks           []geofence.Check `json:"deliveryChecks"`
	AvailableShops   int              `json:"availableShops"`
	UnavailableShops []geofence.Check `json:"unavailableShops"`
	InServiceArea    bool             `json:"inServiceArea"`
}

// CheckAvailability evaluates one shop, or up to 20 when shopID is nil.
func (d *DeliveryService) CheckAvailability(ctx context.Context, lat, lng float64, shopID *primitive.ObjectID) (*Availability, error) {
	if err := geofence.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	var shops []models.Shop
	if shopID != nil {
		shop, err := d.store.FindShop(ctx, *shopID)
		if err != nil {
			return nil, translate(err, "find shop")
		}
		shops = []models.Shop{*shop}
	} else {
		var err error
		shops, err = d.store.ListShops(ctx, availabilityShopLimit)
		if err != nil {
			return nil, translate(err, "list shops")
		}
	}

	sites := make([]geofence.Site, 0, len(shops))
	for i := range shops {
		sites = append(sites, SiteFor(&shops[i]))
	}
	checks, unavailable, err := d.geo.CheckAll(lat, lng, sites)
	if err != nil {
		return nil, err
	}
	if unavailable == nil {
		unavailable = []geofence.Check{}
	}
	return &Availability{
		Checks:           checks,
		AvailableShops:   len(checks) - len(unavailable),
		UnavailableShops: unavailable,
		InServiceArea:    d.geo.InServiceArea(lat, lng),
	}, nil
}

// ProductAvailability is the check for the shop selling one product.
type ProductAvailability struct {
	Product *models.Product `json:"product"`
	ShopID  string          `json:"shopId"`
	geofence.Result
}

func (d *DeliveryService) CheckProduct(ctx context.Context, productID primitive.ObjectID, lat, lng float64) (*ProductAvailability, error) {
	if err := geofence.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	p, err := d.store.FindItem(ctx, productID)
	if err != nil {
		return nil, translate(err, "find product")
	}
	shop, err := d.store.FindShop(ctx, p.ShopID)
	if err != nil {
		return nil, translate(err, "find shop")
	}
	res, err := d.geo.Evaluate(lat, lng, SiteFor(shop))
	if err != nil {
		return nil, err
	}
	return &ProductAvailability{Product: p, ShopID: shop.ID.Hex(), Result: res}, nil
}
