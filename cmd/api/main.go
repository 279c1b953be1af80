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

	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/config"
	"github.com/classsync/internal/infrastructure/catalog"
	"github.com/classsync/internal/infrastructure/classsync"
	"github.com/classsync/internal/infrastructure/dynamo"
	"github.com/classsync/internal/infrastructure/memory"
	s3infra "github.com/classsync/internal/infrastructure/s3"
	"github.com/classsync/internal/infrastructure/sendgrid"
	"github.com/classsync/internal/infrastructure/smtp"
	"github.com/classsync/internal/infrastructure/sns"
	"github.com/classsync/internal/pkg/token"
	transporthttp "github.com/classsync/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	if cfg.AuthSecret == "" {
		log.Println("WARN: AUTH_SECRET is not set; logins will fail and every session cookie is rejected")
	}
	// One codec for minting and edge validation.
	codec := token.NewCodec(cfg.AuthSecret)

	// Pending login codes.
	var codes auth.CodeStore
	switch cfg.CodeStore {
	case "dynamo":
		dynamoClient, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamodb client: %v", err)
		}
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
		codes = dynamo.NewCodeStore(dynamoClient, cfg.DynamoTables.LoginCodes)
	default:
		mem := memory.NewCodeStore(time.Minute)
		defer mem.Close()
		codes = mem
	}

	// Course catalogue.
	var src catalog.Source
	switch cfg.DataSource {
	case "s3":
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("s3 client: %v", err)
		}
		src = s3infra.NewStore(s3Client, cfg.S3BucketName)
	default:
		src = catalog.DirSource(cfg.DataDir)
	}
	loader := catalog.NewLoader(src, cfg.S3ClassKey, cfg.S3StudentKey)
	if _, err := loader.Catalog(ctx); err != nil {
		log.Printf("WARN: catalogue not loaded at startup: %v", err)
	}

	// Login code delivery.
	var mailer smtp.Mailer
	switch cfg.MailProvider {
	case "sendgrid":
		mailer = sendgrid.NewMailer(cfg)
	default:
		mailer = smtp.NewMailer(cfg)
	}

	// SNS sync summaries are optional.
	var publisher sns.Publisher
	if cfg.SyncTopicARN != "" {
		if p, err := sns.NewPublisher(ctx, cfg); err == nil {
			publisher = p
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		Codes:     codes,
		Catalog:   loader,
		Mailer:    mailer,
		Tokens:    codec,
		ClassSync: classsync.NewClient(cfg.ClassSyncAPIURL, cfg.ClassSyncAPIKey),
		Publisher: publisher,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, codes=%s, data=%s, mail=%s)", cfg.AppPort, cfg.AppEnv, cfg.CodeStore, cfg.DataSource, cfg.MailProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
