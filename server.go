package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go-marketplace/config"
	"go-marketplace/controllers"
	"go-marketplace/geofence"
	"go-marketplace/middleware"
	"go-marketplace/routes"
	"go-marketplace/services"
	"go-marketplace/store"
	"go-marketplace/store/memory"
	"go-marketplace/utils"
)

const (
	storeMongo  = "mongo"
	storeMemory = "memory"

	shutdownTimeout = 15 * time.Second
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging()
	return cfg, nil
}

// openStore returns the backing store and its close function.
func openStore(ctx context.Context, cfg *config.Config, kind string) (services.Store, func(context.Context) error, error) {
	switch kind {
	case storeMemory:
		log.Warn("using the in-memory store, data is lost on exit")
		return memory.New(), func(context.Context) error { return nil }, nil
	case storeMongo:
		st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.Transactions)
		if err != nil {
			return nil, nil, err
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Disconnect(ctx)
			return nil, nil, err
		}
		return st, st.Disconnect, nil
	}
	return nil, nil, errors.Errorf("unknown store %q", kind)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(c.Context, cfg, c.String("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.WithError(err).Error("failed to close store")
		}
	}()

	mailer, err := utils.NewMailer(cfg.EmailProvider, cfg.PostmarkAPIToken, cfg.SendgridAPIKey, cfg.EmailSender)
	if err != nil {
		return err
	}
	var gateway utils.PaymentGateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = utils.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		log.Info("razorpay keys not set, online payments disabled")
	}

	dispatcher := services.NewDispatcher(st, utils.NewExpoClient(cfg.ExpoPushURL, cfg.ExpoAccessToken), mailer,
		services.DispatcherConfig{Workers: cfg.NotifyWorkers, QueueSize: cfg.NotifyQueueSize})
	dispatcher.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, st, dispatcher, gateway, mailer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	killSignalChan := getKillSignalChan()
	defer signal.Stop(killSignalChan)

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case s := <-killSignalChan:
			logKillSignal(s)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			return errors.Wrap(err, "drain notifications")
		}
		dropped, failed, handled := dispatcher.Stats()
		log.WithFields(log.Fields{"dropped": dropped, "failed": failed, "handled": handled}).Info("notification dispatcher stopped")
		return nil
	})
	return g.Wait()
}

func newRouter(cfg *config.Config, st services.Store, notifier services.Notifier, gateway utils.PaymentGateway, mailer utils.Mailer) http.Handler {
	geo := geofence.NewEvaluator(geofence.Area{
		CenterLat:    cfg.Geofence.CenterLat,
		CenterLng:    cfg.Geofence.CenterLng,
		MaxRadiusKm:  cfg.Geofence.MaxRadiusKm,
		BoxOffsetDeg: cfg.Geofence.BoxOffsetDeg,
	})
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	accounts := services.NewAccountService(st, tokens)
	orders := services.NewOrderService(st, geo, notifier, services.OrderConfig{
		RequireLocation: cfg.CheckoutRequireLocation,
		OTPMaxAttempts:  cfg.OTPMaxAttempts,
		CommissionRate:  cfg.CommissionRate,
	})
	timeout := cfg.RequestTimeout

	return routes.Router(routes.Controllers{
		Users:         controllers.NewUserController(accounts, timeout),
		Shops:         controllers.NewShopController(accounts, orders, timeout),
		DeliveryMen:   controllers.NewDeliveryManController(accounts, orders, timeout),
		Products:      controllers.NewProductController(services.NewProductService(st), timeout),
		Cart:          controllers.NewCartController(services.NewCartService(st), timeout),
		Orders:        controllers.NewOrderController(orders, timeout),
		Delivery:      controllers.NewDeliveryController(services.NewDeliveryService(st, geo), timeout),
		Notifications: controllers.NewNotificationController(services.NewInbox(st), timeout),
		Payments:      controllers.NewPaymentController(services.NewPaymentService(st, gateway), timeout),
		Withdraws:     controllers.NewWithdrawController(services.NewWithdrawService(st, mailer), timeout),
		Admin:         controllers.NewAdminController(accounts, orders, timeout),
	}, middleware.NewAuthenticator(tokens, st))
}

// withAccounts opens MongoDB for a one-off account command.
func withAccounts(c *cli.Context, fn func(ctx context.Context, accounts *services.AccountService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(c.Context, cfg, storeMongo)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	ctx, cancel := context.WithTimeout(c.Context, cfg.RequestTimeout)
	defer cancel()
	return fn(ctx, services.NewAccountService(st, utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)))
}

func createAdmin(c *cli.Context) error {
	return withAccounts(c, func(ctx context.Context, accounts *services.AccountService) error {
		admin, err := accounts.CreateAdmin(ctx, services.RegisterUserInput{
			Name:     c.String("name"),
			Email:    c.String("email"),
			Password: c.String("password"),
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"id": admin.ID.Hex(), "email": admin.Email}).Info("admin created")
		return nil
	})
}

func approveDeliveryMan(c *cli.Context) error {
	return withAccounts(c, func(ctx context.Context, accounts *services.AccountService) error {
		d, err := accounts.ApproveDeliveryManByEmail(ctx, c.String("email"))
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"id": d.ID.Hex(), "email": d.Email}).Info("delivery man approved")
		return nil
	})
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func logKillSignal(killSignal os.Signal) {
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
