package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/models"
	"go-marketplace/utils"
)

// WithdrawStores is the persistence seller payouts need.
type WithdrawStores interface {
	ShopStore
	WithdrawStore
	TxRunner
}

// WithdrawService moves seller balance into payout requests and lets an admin settle them
type WithdrawService struct {
	store  WithdrawStores
	mailer utils.Mailer
	now    func() time.Time
}

func NewWithdrawService(store WithdrawStores, mailer utils.Mailer) *WithdrawService {
	return &WithdrawService{store: store, mailer: mailer, now: time.Now}
}

type WithdrawInput struct {
	Amount            float64
	BankName          string
	BankAccountNumber string
	BankIfscCode      string
}

// Request debits the shop balance and records a Processing payout. The debit
// only succeeds when the balance covers the amount.
func (s *WithdrawService) Request(ctx context.Context, shopID primitive.ObjectID, in WithdrawInput) (*models.Withdraw, error) {
	amount := decimal.NewFromFloat(in.Amount)
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, apperr.Invalid("amount must be positive with at most two decimals")
	}
	if strings.TrimSpace(in.BankName) == "" || strings.TrimSpace(in.BankAccountNumber) == "" || strings.TrimSpace(in.BankIfscCode) == "" {
		return nil, apperr.Invalid("bank details are required")
	}
	shop, err := s.store.FindShop(ctx, shopID)
	if err != nil {
		return nil, translate(err, "find shop")
	}

	if err := s.store.DebitShopBalance(ctx, shopID, in.Amount); err != nil {
		return nil, translate(err, "debit shop balance")
	}
	now := s.now()
	w := &models.Withdraw{
		ShopID:            shopID,
		Amount:            in.Amount,
		BankName:          strings.TrimSpace(in.BankName),
		BankAccountNumber: strings.TrimSpace(in.BankAccountNumber),
		BankIfscCode:      strings.ToUpper(strings.TrimSpace(in.BankIfscCode)),
		Status:            models.WithdrawProcessing,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.InsertWithdraw(ctx, w); err != nil {
		if cerr := s.store.CreditShopBalance(ctx, shopID, in.Amount); cerr != nil {
			log.WithError(cerr).WithFields(log.Fields{"shop": shopID.Hex(), "amount": in.Amount}).
				Error("failed to return withdraw amount to balance")
		}
		return nil, translate(err, "save withdraw")
	}

	log.WithFields(log.Fields{"shop": shopID.Hex(), "withdraw": w.ID.Hex(), "amount": w.Amount}).Info("withdraw requested")
	s.mail(ctx, shop, w, utils.WithdrawRequestedEmail)
	return w, nil
}

// WithdrawPage is one page of payout requests.
type WithdrawPage struct {
	Withdraws  []models.Withdraw `json:"withdraws"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int64             `json:"total"`
	TotalPages int64             `json:"totalPages"`
}

// List pages requests newest first; a nil shopID lists every shop.
func (s *WithdrawService) List(ctx context.Context, shopID *primitive.ObjectID, page models.Page) (*WithdrawPage, error) {
	list, total, err := s.store.ListWithdraws(ctx, shopID, page)
	if err != nil {
		return nil, translate(err, "list withdraws")
	}
	return &WithdrawPage{
		Withdraws:  list,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

// Approve settles a Processing request once and records it on the shop.
func (s *WithdrawService) Approve(ctx context.Context, id primitive.ObjectID) (*models.Withdraw, error) {
	now := s.now()
	txID := "TRX-" + strings.ToUpper(uuid.NewString())

	var done *models.Withdraw
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		w, err := s.store.CompleteWithdraw(ctx, id, txID, now)
		if err != nil {
			return err
		}
		done = w
		return s.store.AddShopTransaction(ctx, w.ShopID, models.ShopTransaction{
			ID:        w.ID,
			Amount:    w.Amount,
			Status:    w.Status,
			UpdatedAt: now,
		})
	})
	if errors.Is(err, models.ErrNoMatch) {
		if _, ferr := s.store.FindWithdraw(ctx, id); ferr != nil {
			return nil, translate(ferr, "find withdraw")
		}
		return nil, apperr.New(apperr.Conflict, apperr.CodeInvalidState, "withdraw request was already processed")
	}
	if err != nil {
		return nil, translate(err, "approve withdraw")
	}

	log.WithFields(log.Fields{"withdraw": id.Hex(), "shop": done.ShopID.Hex(), "transaction": txID}).Info("withdraw approved")
	if shop, err := s.store.FindShop(ctx, done.ShopID); err == nil {
		s.mail(ctx, shop, done, utils.WithdrawApprovedEmail)
	} else {
		log.WithError(err).WithField("shop", done.ShopID.Hex()).Warn("withdraw approved for unknown shop")
	}
	return done, nil
}

type withdrawEmail func(*models.Shop, *models.Withdraw) (subject, html, text string)

// mail is best effort; a failed send never fails the request.
func (s *WithdrawService) mail(ctx context.Context, shop *models.Shop, w *models.Withdraw, render withdrawEmail) {
	if s.mailer == nil || shop.Email == "" {
		return
	}
	subject, html, text := render(shop, w)
	if err := s.mailer.Send(ctx, shop.Email, subject, html, text); err != nil {
		log.WithError(err).WithFields(log.Fields{"shop": shop.ID.Hex(), "withdraw": w.ID.Hex()}).Warn("withdraw email failed")
	}
}
