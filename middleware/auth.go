package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

// Key type for context
type contextKey string

const principalKey = contextKey("principal")

// Principal is the authenticated caller. Exactly one of User, Shop and DeliveryMan is set.
type Principal struct {
	Role        string
	User        *models.User
	Shop        *models.Shop
	DeliveryMan *models.DeliveryMan
}

// ID returns the id of whichever account the principal holds.
func (p *Principal) ID() primitive.ObjectID {
	switch {
	case p.User != nil:
		return p.User.ID
	case p.Shop != nil:
		return p.Shop.ID
	case p.DeliveryMan != nil:
		return p.DeliveryMan.ID
	}
	return primitive.NilObjectID
}

func (p *Principal) Actor() services.Actor {
	return services.Actor{Role: p.Role, ID: p.ID()}
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal attached by Authenticator.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// PrincipalStore loads the account behind a token.
type PrincipalStore interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindShop(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	FindDeliveryMan(ctx context.Context, id primitive.ObjectID) (*models.DeliveryMan, error)
}

// Authenticator verifies bearer tokens and resolves them to principals
type Authenticator struct {
	tokens *utils.TokenIssuer
	store  PrincipalStore
}

func NewAuthenticator(tokens *utils.TokenIssuer, store PrincipalStore) *Authenticator {
	return &Authenticator{tokens: tokens, store: store}
}

// Require returns a middleware admitting only the given roles.
func (a *Authenticator) Require(roles ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r, roles...)
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func roleNotAllowed(role string) error {
	return apperr.Newf(apperr.Authorization, apperr.CodeRoleNotAllowed, "role %q is not allowed here", role)
}

func principalNotFound() error {
	return apperr.New(apperr.NotFound, apperr.CodePrincipalNotFound, "account not found")
}

// Authenticate resolves the request's token to a principal whose role is in roles.
func (a *Authenticator) Authenticate(r *http.Request, roles ...string) (*Principal, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, apperr.New(apperr.Authentication, apperr.CodeUnauthenticated, "authorization header missing or malformed")
	}
	claims, err := a.tokens.ParseJWT(raw)
	if err != nil {
		log.WithError(err).Debug("rejected token")
		return nil, apperr.New(apperr.Authentication, apperr.CodeInvalidToken, "invalid or expired token")
	}
	if !allowed(claims.Role, roles) {
		return nil, roleNotAllowed(claims.Role)
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, apperr.New(apperr.Authentication, apperr.CodeInvalidToken, "invalid token subject")
	}
	return a.load(r.Context(), claims.Role, id)
}

func (a *Authenticator) load(ctx context.Context, role string, id primitive.ObjectID) (*Principal, error) {
	switch role {
	case models.RoleCustomer, models.RoleAdmin:
		u, err := a.store.FindUser(ctx, id)
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, principalNotFound()
		}
		if err != nil {
			return nil, apperr.Wrap(err, "load user")
		}
		// the stored role wins over the token's
		if u.Role != role {
			return nil, roleNotAllowed(u.Role)
		}
		return &Principal{Role: role, User: u}, nil

	case models.RoleSeller:
		s, err := a.store.FindShop(ctx, id)
		if errors.Is(err, models.ErrShopNotFound) {
			return nil, principalNotFound()
		}
		if err != nil {
			return nil, apperr.Wrap(err, "load shop")
		}
		return &Principal{Role: role, Shop: s}, nil

	case models.RoleDeliveryMan:
		d, err := a.store.FindDeliveryMan(ctx, id)
		if errors.Is(err, models.ErrDeliveryManNotFound) {
			return nil, principalNotFound()
		}
		if err != nil {
			return nil, apperr.Wrap(err, "load delivery man")
		}
		if !d.IsApproved {
			return nil, apperr.New(apperr.Authorization, apperr.CodeNotApproved, "your account is waiting for admin approval")
		}
		return &Principal{Role: role, DeliveryMan: d}, nil
	}
	return nil, roleNotAllowed(role)
}

func allowed(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
