package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/geofence"
	"go-marketplace/models"
	"go-marketplace/utils"
)

// AccountStores is the persistence for the three account types.
type AccountStores interface {
	UserStore
	ShopStore
	DeliveryManStore
}

// AccountService registers and authenticates customers, sellers, delivery men and admins
type AccountService struct {
	store  AccountStores
	tokens *utils.TokenIssuer
	now    func() time.Time
}

func NewAccountService(store AccountStores, tokens *utils.TokenIssuer) *AccountService {
	return &AccountService{store: store, tokens: tokens, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return apperr.New(apperr.Authentication, apperr.CodeInvalidCredentials, "invalid email or password")
}

// Session is a signed token plus the account it was issued for.
type Session struct {
	Token   string      `json:"token"`
	Role    string      `json:"role"`
	Account interface{} `json:"account"`
}

func (a *AccountService) session(id primitive.ObjectID, role string, account interface{}) (*Session, error) {
	tok, err := a.tokens.GenerateJWT(id.Hex(), role)
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}
	return &Session{Token: tok, Role: role, Account: account}, nil
}

type RegisterUserInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

func (a *AccountService) RegisterUser(ctx context.Context, in RegisterUserInput) (*Session, error) {
	u, err := a.createUser(ctx, in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return a.session(u.ID, u.Role, u)
}

// CreateAdmin stores an admin account; used from the command line.
func (a *AccountService) CreateAdmin(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	return a.createUser(ctx, in, models.RoleAdmin)
}

func (a *AccountService) createUser(ctx context.Context, in RegisterUserInput, role string) (*models.User, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}
	u := &models.User{
		Name:        in.Name,
		Email:       normalizeEmail(in.Email),
		Password:    hash,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
		CreatedAt:   a.now(),
	}
	if err := a.store.InsertUser(ctx, u); err != nil {
		return nil, translate(err, "create user")
	}
	log.WithFields(log.Fields{"user": u.ID.Hex(), "role": role}).Info("user registered")
	return u, nil
}

// LoginUser authenticates a customer or an admin.
func (a *AccountService) LoginUser(ctx context.Context, email, password string) (*Session, error) {
	u, err := a.store.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, translate(err, "find user")
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, invalidCredentials()
	}
	return a.session(u.ID, u.Role, u)
}

type RegisterShopInput struct {
	Name           string
	Email          string
	Password       string
	Address        string
	PhoneNumber    string
	Latitude       *float64
	Longitude      *float64
	DeliveryRadius models.DeliveryRadius
}

func (a *AccountService) RegisterShop(ctx context.Context, in RegisterShopInput) (*Session, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}
	shop := &models.Shop{
		Name:           in.Name,
		Email:          normalizeEmail(in.Email),
		Password:       hash,
		Address:        in.Address,
		PhoneNumber:    in.PhoneNumber,
		Role:           models.RoleSeller,
		DeliveryRadius: in.DeliveryRadius,
		CreatedAt:      a.now(),
	}
	if in.Latitude != nil && in.Longitude != nil {
		if err := geofence.ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, err
		}
		shop.Location = models.NewGeoPoint(*in.Latitude, *in.Longitude)
	}
	if r := in.DeliveryRadius.CustomRadius; r != nil && *r <= 0 {
		return nil, apperr.Invalid("customRadius must be positive")
	}
	if err := a.store.InsertShop(ctx, shop); err != nil {
		return nil, translate(err, "create shop")
	}
	log.WithField("shop", shop.ID.Hex()).Info("shop registered")
	return a.session(shop.ID, models.RoleSeller, shop)
}

func (a *AccountService) LoginShop(ctx context.Context, email, password string) (*Session, error) {
	shop, err := a.store.FindShopByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrShopNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, translate(err, "find shop")
	}
	if !utils.CheckPassword(shop.Password, password) {
		return nil, invalidCredentials()
	}
	return a.session(shop.ID, models.RoleSeller, shop)
}

type RegisterDeliveryManInput struct {
	Name          string
	Email         string
	Password      string
	PhoneNumber   string
	Address       string
	VehicleType   string
	VehicleNumber string
	LicenseNumber string
}

// RegisterDeliveryMan stores an unapproved account. No token is issued until approval.
func (a *AccountService) RegisterDeliveryMan(ctx context.Context, in RegisterDeliveryManInput) (*models.DeliveryMan, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}
	d := &models.DeliveryMan{
		Name:          in.Name,
		Email:         normalizeEmail(in.Email),
		Password:      hash,
		PhoneNumber:   in.PhoneNumber,
		Address:       in.Address,
		VehicleType:   in.VehicleType,
		VehicleNumber: in.VehicleNumber,
		LicenseNumber: in.LicenseNumber,
		CreatedAt:     a.now(),
	}
	if err := a.store.InsertDeliveryMan(ctx, d); err != nil {
		return nil, translate(err, "create delivery man")
	}
	log.WithField("deliveryMan", d.ID.Hex()).Info("delivery man registered, awaiting approval")
	return d, nil
}

func (a *AccountService) LoginDeliveryMan(ctx context.Context, email, password string) (*Session, error) {
	d, err := a.store.FindDeliveryManByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrDeliveryManNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, translate(err, "find delivery man")
	}
	if !utils.CheckPassword(d.Password, password) {
		return nil, invalidCredentials()
	}
	if !d.IsApproved {
		return nil, apperr.New(apperr.Authorization, apperr.CodeNotApproved, "your account is waiting for admin approval")
	}
	return a.session(d.ID, models.RoleDeliveryMan, d)
}

func (a *AccountService) SetDeliveryManApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.DeliveryMan, error) {
	d, err := a.store.SetDeliveryManApproved(ctx, id, approved)
	if err != nil {
		return nil, translate(err, "approve delivery man")
	}
	log.WithFields(log.Fields{"deliveryMan": id.Hex(), "approved": approved}).Info("delivery man approval changed")
	return d, nil
}

// RejectDeliveryMan removes a delivery account that is still waiting for approval.
func (a *AccountService) RejectDeliveryMan(ctx context.Context, id primitive.ObjectID) error {
	err := a.store.DeleteUnapprovedDeliveryMan(ctx, id)
	if errors.Is(err, models.ErrNoMatch) {
		return apperr.New(apperr.Conflict, apperr.CodeInvalidState, "delivery man is already approved")
	}
	if err != nil {
		return translate(err, "reject delivery man")
	}
	log.WithField("deliveryMan", id.Hex()).Info("delivery man rejected and removed")
	return nil
}

// ApproveDeliveryManByEmail is the command-line variant of SetDeliveryManApproved.
func (a *AccountService) ApproveDeliveryManByEmail(ctx context.Context, email string) (*models.DeliveryMan, error) {
	d, err := a.store.FindDeliveryManByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, translate(err, "find delivery man")
	}
	return a.SetDeliveryManApproved(ctx, d.ID, true)
}

// DeliveryManPage is one page of the admin listing.
type DeliveryManPage struct {
	DeliveryMen []models.DeliveryMan `json:"deliveryMen"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	Total       int64                `json:"total"`
	TotalPages  int64                `json:"totalPages"`
}

func (a *AccountService) ListDeliveryMen(ctx context.Context, approved *bool, page models.Page) (*DeliveryManPage, error) {
	list, total, err := a.store.ListDeliveryMen(ctx, approved, page)
	if err != nil {
		return nil, translate(err, "list delivery men")
	}
	return &DeliveryManPage{
		DeliveryMen: list,
		Page:        page.Page,
		Limit:       page.Limit,
		Total:       total,
		TotalPages:  page.TotalPages(total),
	}, nil
}

func (a *AccountService) UpdateDeliveryLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64) error {
	if err := geofence.ValidateCoordinates(lat, lng); err != nil {
		return err
	}
	return translate(a.store.UpdateDeliveryManLocation(ctx, id, models.NewGeoPoint(lat, lng)), "update location")
}

// SetPushToken stores an Expo token on the actor's account.
func (a *AccountService) SetPushToken(ctx context.Context, actor Actor, token string) error {
	if !utils.IsExpoPushToken(token) {
		return apperr.Invalid("invalid Expo push token")
	}
	var err error
	switch actor.Role {
	case models.RoleCustomer, models.RoleAdmin:
		err = a.store.SetUserPushToken(ctx, actor.ID, token)
	case models.RoleSeller:
		err = a.store.SetShopPushToken(ctx, actor.ID, token)
	case models.RoleDeliveryMan:
		err = a.store.SetDeliveryManPushToken(ctx, actor.ID, token)
	default:
		return apperr.Forbidden("unknown role")
	}
	return translate(err, "save push token")
}
