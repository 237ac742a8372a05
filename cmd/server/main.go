package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "pos-ledger/internal/adapters/web"
	"pos-ledger/internal/core"
	"pos-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	sequenceService := core.NewSequenceService(pool)
	customerService := core.NewCustomerService(pool)
	orderService := core.NewOrderService(pool, sequenceService)
	paymentService := core.NewPaymentService(pool)
	summaryService := core.NewSummaryService(pool, customerService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(orderService, paymentService, summaryService, customerService, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
