package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mlevchenko/studyhub/internal/config"
	"github.com/mlevchenko/studyhub/internal/events"
	"github.com/mlevchenko/studyhub/internal/httpserver"
	"github.com/mlevchenko/studyhub/internal/logging"
	"github.com/mlevchenko/studyhub/internal/mailer"
	mw "github.com/mlevchenko/studyhub/internal/middleware"
	"github.com/mlevchenko/studyhub/internal/repo"
	"github.com/mlevchenko/studyhub/internal/search"
	"github.com/mlevchenko/studyhub/internal/service"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec(cfg.JWTSecret)

	var m mailer.Mailer = mailer.Log{}
	if cfg.Environment == "production" {
		m = &mailer.SMTP{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, auth events disabled")
	}

	subjectSvc := &service.SubjectService{
		Repo:  gormRepo,
		Index: search.SubjectIndex,
	}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		subjectSvc.ES = es
	} else {
		logger.Warn("ES_URL not set, subject search disabled")
	}

	authSvc := &service.AuthService{
		Repo:    gormRepo,
		Codec:   codec,
		Mailer:  m,
		Events:  publisher,
		BaseURL: cfg.BaseURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(mw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		SubjectHandler: &httpserver.SubjectHTTP{Svc: subjectSvc},
		AuthMw:         mw.NewBearerAuth(codec),
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
