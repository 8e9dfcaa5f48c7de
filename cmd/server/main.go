package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/config"
	"github.com/arenatix/ticketing/internal/database"
	"github.com/arenatix/ticketing/internal/handler"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/pricecache"
	"github.com/arenatix/ticketing/internal/pricing"
	"github.com/arenatix/ticketing/internal/queue"
	"github.com/arenatix/ticketing/internal/repository"
	"github.com/arenatix/ticketing/internal/router"
	"github.com/arenatix/ticketing/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the price cache passes through to the
	// gateway and the redemption rate limiter is disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; price cache and rate limiting disabled")
	}

	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, &http.Client{Timeout: 15 * time.Second})
	prices := pricecache.New(rdb, gateway, 5*time.Minute)
	publisher := queue.NewPublisher(cfg.AMQPURL)

	tierRepo := repository.NewTierRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	resolver := pricing.NewResolver(saleRepo, cfg.Features.FlashSalesEnabled)
	registry := service.NewRegistry(saleRepo, tierRepo, cfg.Features)
	gate := service.NewGate(tierRepo, resolver, prices, gateway, cfg.Features, cfg.SuccessURL, cfg.CancelURL, cfg.SessionTTL)
	issuer := service.NewIssuer(orderRepo, tierRepo, gateway, publisher)
	redemption := service.NewRedemption(orderRepo)

	e := echo.New()
	e.HideBanner = true

	router.RegisterPublic(e, handler.NewCheckoutHandler(gate, issuer))
	router.RegisterRedemption(e, handler.NewRedemptionHandler(redemption), config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, handler.NewAdminTierHandler(tierRepo), handler.NewAdminSaleHandler(registry), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
