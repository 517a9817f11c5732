package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/traction-hub/internal/infra/database"
	"github.com/xavierca1/traction-hub/internal/infra/http/handlers"
	"github.com/xavierca1/traction-hub/internal/infra/http/middleware"
	"github.com/xavierca1/traction-hub/internal/infra/identity"
	"github.com/xavierca1/traction-hub/internal/infra/mail"
	"github.com/xavierca1/traction-hub/internal/infra/queue"
	"github.com/xavierca1/traction-hub/internal/sse"
	"github.com/xavierca1/traction-hub/internal/usecase"
)

func main() {
	godotenv.Load()
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	db, err := database.NewDBConnection(dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal(err)
	}
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := database.SeedDemoLeads(ctx, db); err != nil {
			log.Fatal(err)
		}
	}

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Store + event plumbing
	leadRepo := database.NewLeadRepository(db, dsn)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		envOr("MAIL_FROM", "pipeline@constellate.bio"),
		os.Getenv("ALERT_TO"),
	)

	// 2. Worker (drains lead events, mails commitment alerts)
	worker := queue.NewWorker(rabbitMQ.Ch, mailSender)
	go worker.Start(queue.QueueName)

	// 3. Core: tracker fed by identity events
	tracker := usecase.NewTracker(leadRepo, producer)

	provider := identity.NewProvider(os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))
	stopAuth := provider.OnAuthChange(tracker.OnAuthChange)
	defer stopAuth()

	// 4. Live view stream
	broker := sse.NewBroker()
	defer broker.Close()
	tracker.SetOnChange(func() {
		broker.Publish(sse.Event{Type: "view", Data: tracker.View()})
	})

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(tracker)
	sessionHandler := handlers.NewSessionHandler(provider)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/session", sessionHandler.HandleSignIn)
	r.Delete("/session", sessionHandler.HandleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(sessionHandler.Require)
		r.Get("/stages", leadHandler.HandleStages)
		r.Get("/leads", leadHandler.HandleList)
		r.Post("/leads", leadHandler.HandleSave)
		r.Put("/leads/{id}/stage", leadHandler.HandleStageChange)
		r.Delete("/leads/{id}", leadHandler.HandleDelete)
		r.Get("/summary", leadHandler.HandleSummary)
		r.Get("/events", broker.ServeHTTP)
	})

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 Traction Hub running on %s", port)
	http.ListenAndServe(port, r)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
