package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-ticket-reservation/internal/config"
	"github.com/iliyamo/concert-ticket-reservation/internal/database"
	"github.com/iliyamo/concert-ticket-reservation/internal/handler"
	"github.com/iliyamo/concert-ticket-reservation/internal/queue"
	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
	"github.com/iliyamo/concert-ticket-reservation/internal/router"
	"github.com/iliyamo/concert-ticket-reservation/internal/service"
	"github.com/iliyamo/concert-ticket-reservation/internal/slipok"
	"github.com/iliyamo/concert-ticket-reservation/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	cfg := config.Load()
	if cfg.Env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unavailable; cache and limiter degrade to no-ops

	users := repository.NewUserRepo(db)
	organizers := repository.NewOrganizerRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketTypeRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)

	slips := storage.NewSlipStore(cfg.UploadDir)
	verifier := slipok.New(cfg.SlipOKURL, cfg.SlipOKSecret)

	sweeper := service.NewOrderSweeper(
		service.NewExpiredOrders(orders, tickets),
		cfg.OrderWindow, cfg.SweepInterval, log,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)
	go queue.StartOrderPaidConsumer(log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, organizers, tokens),
		Users:       handler.NewUserHandler(cfg, users),
		Events:      handler.NewEventHandler(events),
		TicketTypes: handler.NewTicketTypeHandler(tickets, events),
		Orders:      handler.NewOrderHandler(cfg, orders, tickets),
		Payments:    handler.NewPaymentHandler(cfg, orders, tickets, payments, slips, verifier, log),
		Admin:       handler.NewAdminHandler(users, orders, sweeper),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
