package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kikundi/sacco-engine/internal/config"
	"github.com/kikundi/sacco-engine/internal/handler"
	"github.com/kikundi/sacco-engine/internal/repository"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/logger"
	"github.com/kikundi/sacco-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Options{
		ServiceName: "sacco-engine",
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
	})

	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	store := repository.NewStore(db)

	settings := service.NewSettingsService(store)
	notifier := service.NewNotifier(store, log)
	balances := service.NewBalanceService(store, notifier)
	loans := service.NewLoanService(store, settings, notifier)
	guarantors := service.NewGuarantorService(store, notifier)
	votes := service.NewVoteService(store)
	payments := service.NewPaymentService(store, notifier, log)
	fines := service.NewFineService(store, settings, notifier, log)
	dividends := service.NewDividendService(store, notifier)

	loanHandler := handler.NewLoanHandler(loans, guarantors, votes)
	paymentHandler := handler.NewPaymentHandler(payments)
	walletHandler := handler.NewWalletHandler(balances, notifier)
	fineHandler := handler.NewFineHandler(fines)
	dividendHandler := handler.NewDividendHandler(dividends)
	settingsHandler := handler.NewSettingsHandler(settings)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(log, redisClient,
		loanHandler, paymentHandler, walletHandler, fineHandler, dividendHandler, settingsHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	log zerolog.Logger,
	redisClient *redis.Client,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	walletHandler *handler.WalletHandler,
	fineHandler *handler.FineHandler,
	dividendHandler *handler.DividendHandler,
	settingsHandler *handler.SettingsHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Loan lifecycle
	api.HandleFunc("/loans/status", loanHandler.Status).Methods("GET")
	api.HandleFunc("/loans/init", loanHandler.Init).Methods("POST")
	api.HandleFunc("/loans/details", loanHandler.SubmitDetails).Methods("POST")
	api.HandleFunc("/loans/queue", loanHandler.Queue).Methods("GET")
	api.HandleFunc("/loans/{id}/verify", loanHandler.Verify).Methods("POST")
	api.HandleFunc("/loans/{id}/table", loanHandler.Table).Methods("POST")
	api.HandleFunc("/loans/{id}/open-voting", loanHandler.OpenVoting).Methods("POST")
	api.HandleFunc("/loans/finalize", loanHandler.Finalize).Methods("POST")
	api.HandleFunc("/loans/{id}/disburse", loanHandler.Disburse).Methods("POST")
	api.HandleFunc("/loans/{id}/guarantors", loanHandler.GuarantorRoster).Methods("GET")

	// Guarantors and votes
	api.HandleFunc("/guarantors", loanHandler.AddGuarantor).Methods("POST")
	api.HandleFunc("/guarantors/respond", loanHandler.RespondGuarantor).Methods("POST")
	api.HandleFunc("/guarantors/requests", loanHandler.MyGuarantorRequests).Methods("GET")
	api.HandleFunc("/members/search", loanHandler.SearchMembers).Methods("GET")
	api.HandleFunc("/votes", loanHandler.CastVote).Methods("POST")
	api.HandleFunc("/votes/open", loanHandler.OpenVotes).Methods("GET")
	api.HandleFunc("/votes/tally", loanHandler.LiveTally).Methods("GET")

	// Payments. Mutating payment routes sit behind the redis retry guard.
	idem := handler.IdempotencyMiddleware(redisClient, log, 24*time.Hour)
	payments := api.PathPrefix("/payments").Subrouter()
	payments.Use(idem)
	payments.HandleFunc("/callback", paymentHandler.GatewayCallback).Methods("POST")
	payments.HandleFunc("/manual", paymentHandler.ReportManual).Methods("POST")
	payments.HandleFunc("/review", paymentHandler.Review).Methods("POST")
	payments.HandleFunc("/record", paymentHandler.AdminRecord).Methods("POST")
	payments.HandleFunc("/claim", paymentHandler.Claim).Methods("POST")

	api.HandleFunc("/payments/pending", paymentHandler.PendingReview).Methods("GET")
	api.HandleFunc("/payments", paymentHandler.ListAll).Methods("GET")
	api.HandleFunc("/payments/history", paymentHandler.History).Methods("GET")

	// Wallet
	api.HandleFunc("/wallet/balances", walletHandler.Balances).Methods("GET")
	api.HandleFunc("/wallet/free-savings", walletHandler.FreeSavings).Methods("GET")
	api.HandleFunc("/wallet/withdraw", walletHandler.Withdraw).Methods("POST")
	api.HandleFunc("/wallet/ledger", walletHandler.Ledger).Methods("GET")
	api.HandleFunc("/wallet/shares", walletHandler.ShareRegister).Methods("GET")
	api.HandleFunc("/notifications", walletHandler.Notifications).Methods("GET")

	// Fines
	api.HandleFunc("/fines", fineHandler.MyFines).Methods("GET")
	api.HandleFunc("/fines", fineHandler.Impose).Methods("POST")
	api.HandleFunc("/fines/sweep", fineHandler.RunSweep).Methods("POST")

	// Dividends
	api.HandleFunc("/dividends", dividendHandler.List).Methods("GET")
	api.HandleFunc("/dividends", dividendHandler.Declare).Methods("POST")
	api.HandleFunc("/dividends/{id}/allocate", dividendHandler.Allocate).Methods("POST")

	// Settings
	api.HandleFunc("/settings", settingsHandler.List).Methods("GET")
	api.HandleFunc("/settings", settingsHandler.Update).Methods("PUT")

	return router
}
