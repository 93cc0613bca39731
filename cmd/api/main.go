package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/khadkaarun/Restaurant-Website/internal/auth"
	"github.com/khadkaarun/Restaurant-Website/internal/db"
	"github.com/khadkaarun/Restaurant-Website/internal/gallery"
	"github.com/khadkaarun/Restaurant-Website/internal/mailer"
	"github.com/khadkaarun/Restaurant-Website/internal/menu"
	"github.com/khadkaarun/Restaurant-Website/internal/notification"
	"github.com/khadkaarun/Restaurant-Website/internal/order"
	"github.com/khadkaarun/Restaurant-Website/internal/payment"
	"github.com/khadkaarun/Restaurant-Website/internal/push"
	"github.com/khadkaarun/Restaurant-Website/internal/router"
	"github.com/khadkaarun/Restaurant-Website/internal/storage"
	"github.com/khadkaarun/Restaurant-Website/internal/workflow"

	"github.com/joho/godotenv"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	required := []string{
		"JWT_SECRET",
		"DATABASE_URL",
		"STRIPE_SECRET_KEY",
		"RESEND_API_KEY",
		"MAIL_FROM",
		"APP_BASE_URL",
		"R2_ACCESS_KEY",
		"R2_SECRET_KEY",
		"R2_BUCKET_NAME",
		"R2_ENDPOINT",
		"R2_PUBLIC_BASE_URL",
		"VAPID_SUBJECT",
		"VAPID_PUBLIC_KEY",
		"VAPID_PRIVATE_KEY",
	}

	for _, k := range required {
		if os.Getenv(k) == "" {
			log.Fatalf("❌ Missing env var: %s", k)
		}
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// ───────────────────────── STORAGE ─────────────────────────
	r2Client, err := storage.NewR2Client(context.Background(), storage.Config{
		Endpoint:  os.Getenv("R2_ENDPOINT"),
		AccessKey: os.Getenv("R2_ACCESS_KEY"),
		SecretKey: os.Getenv("R2_SECRET_KEY"),
		Bucket:    os.Getenv("R2_BUCKET_NAME"),
		BaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	})
	if err != nil {
		log.Fatal("❌ R2 init failed:", err)
	}

	// ───────────────────────── SERVICES ─────────────────────────
	userRepo := auth.NewPostgresUserRepository(pgDB)
	authService := auth.NewService(userRepo)
	authHandler := auth.NewHandler(authService)

	menuRepo := menu.NewPostgresRepository(pgDB)
	menuService := menu.NewService(menuRepo, r2Client)
	menuHandler := menu.NewHandler(menuService)

	stripeClient := payment.NewStripeClient(os.Getenv("STRIPE_SECRET_KEY"))

	orderRepo := order.NewPostgresRepository(pgDB)
	orderService := order.NewService(orderRepo, menuRepo, stripeClient, os.Getenv("APP_BASE_URL"))
	orderHandler := order.NewHandler(orderService)

	workflowService := workflow.NewService(workflow.NewManager(), orderService, menuService)
	workflowHandler := workflow.NewHandler(workflowService)

	galleryRepo := gallery.NewPostgresRepository(pgDB)
	galleryService := gallery.NewService(galleryRepo, r2Client)
	galleryHandler := gallery.NewHandler(galleryService)

	pushRepo := push.NewPostgresRepository(pgDB)
	pushService := push.NewService(pushRepo, push.VAPIDKeys{
		Subject:    os.Getenv("VAPID_SUBJECT"),
		PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	})
	pushHandler := push.NewHandler(pushService)

	// ───────────────────────── OUTBOX ─────────────────────────
	mailService := mailer.NewService(os.Getenv("RESEND_API_KEY"), os.Getenv("MAIL_FROM"))
	dispatcher := notification.NewDispatcher(
		notification.NewPostgresRepository(pgDB),
		mailService,
		pushService,
	)
	go dispatcher.Run(context.Background())

	// ───────────────────────── ROUTER ─────────────────────────
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		origins = append(origins, strings.Split(extra, ",")...)
	}

	r := router.NewRouter(router.Handlers{
		Auth:     authHandler,
		Menu:     menuHandler,
		Order:    orderHandler,
		Workflow: workflowHandler,
		Gallery:  galleryHandler,
		Push:     pushHandler,
	}, origins)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Server running on port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Server failed:", err)
	}
}
