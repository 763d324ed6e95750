package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/handlers"
	"bitbucket.org/smallops/backoffice_backend/middlewares"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer trace.Tracer = otel.Tracer("backoffice-backend")

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/register", handlers.Register)
	r.POST("/auth/login", handlers.Login)

	api := r.Group("/api/v1")
	api.Use(middlewares.RequireUser())

	api.POST("/businesses", handlers.CreateBusiness)
	api.GET("/businesses", handlers.GetBusinesses)
	api.GET("/businesses/:id", handlers.GetBusiness)
	api.PUT("/businesses/:id", handlers.UpdateBusiness)
	api.DELETE("/businesses/:id", handlers.DeleteBusiness)
	api.POST("/payment-terms", handlers.CreatePaymentTerm)
	api.GET("/payment-terms", handlers.GetPaymentTerms)

	api.POST("/contacts", handlers.CreateContact)
	api.GET("/contacts", handlers.GetContacts)
	api.GET("/contacts/:id", handlers.GetContact)
	api.PUT("/contacts/:id", handlers.UpdateContact)
	api.DELETE("/contacts/:id", handlers.DeleteContact)

	api.POST("/item-types", handlers.CreateItemType)
	api.GET("/item-types", handlers.GetItemTypes)
	api.POST("/price-list-items", handlers.CreatePriceListItem)
	api.GET("/price-list-items", handlers.GetPriceListItems)
	api.GET("/price-list-items/:id", handlers.GetPriceListItem)
	api.PUT("/price-list-items/:id", handlers.UpdatePriceListItem)
	api.DELETE("/price-list-items/:id", handlers.DeletePriceListItem)

	api.POST("/jobs", handlers.CreateJob)
	api.GET("/jobs", handlers.GetJobs)
	api.GET("/jobs/:id", handlers.GetJob)
	api.PUT("/jobs/:id", handlers.UpdateJob)
	api.PUT("/jobs/:id/status", handlers.UpdateJobStatus)
	api.DELETE("/jobs/:id", handlers.DeleteJob)

	api.POST("/estimates", handlers.CreateEstimate)
	api.GET("/estimates", handlers.GetEstimates)
	api.GET("/estimates/:id", handlers.GetEstimate)
	api.PUT("/estimates/:id", handlers.UpdateEstimate)
	api.PUT("/estimates/:id/status", handlers.UpdateEstimateStatus)
	api.POST("/estimates/:id/revisions", handlers.CreateEstimateRevision)
	api.POST("/estimates/:id/work-order", handlers.CreateWorkOrderFromEstimate)
	api.DELETE("/estimates/:id", handlers.DeleteEstimate)
	api.POST("/estimates/:id/line-items", handlers.AddEstimateLineItem)
	api.GET("/estimates/:id/line-items", handlers.GetEstimateLineItems)
	api.PUT("/estimates/:id/line-items/:itemId/reorder", handlers.ReorderEstimateLineItem)
	api.DELETE("/estimates/:id/line-items/:itemId", handlers.DeleteEstimateLineItem)

	api.POST("/work-orders", handlers.CreateWorkOrder)
	api.GET("/work-orders", handlers.GetWorkOrders)
	api.GET("/work-orders/:id", handlers.GetWorkOrder)
	api.PUT("/work-orders/:id", handlers.UpdateWorkOrder)
	api.PUT("/work-orders/:id/status", handlers.UpdateWorkOrderStatus)
	api.POST("/work-orders/:id/estimate", handlers.CreateEstimateFromWorkOrder)
	api.DELETE("/work-orders/:id", handlers.DeleteWorkOrder)
	api.POST("/work-orders/:id/tasks", handlers.CreateTask)
	api.GET("/work-orders/:id/tasks", handlers.GetTasks)
	api.PUT("/tasks/:taskId", handlers.UpdateTask)
	api.DELETE("/tasks/:taskId", handlers.DeleteTask)

	api.POST("/invoices", handlers.CreateInvoice)
	api.GET("/invoices", handlers.GetInvoices)
	api.GET("/invoices/:id", handlers.GetInvoice)
	api.PUT("/invoices/:id", handlers.UpdateInvoice)
	api.PUT("/invoices/:id/status", handlers.UpdateInvoiceStatus)
	api.DELETE("/invoices/:id", handlers.DeleteInvoice)
	api.POST("/invoices/:id/line-items", handlers.AddInvoiceLineItem)
	api.GET("/invoices/:id/line-items", handlers.GetInvoiceLineItems)
	api.PUT("/invoices/:id/line-items/:itemId/reorder", handlers.ReorderInvoiceLineItem)
	api.DELETE("/invoices/:id/line-items/:itemId", handlers.DeleteInvoiceLineItem)

	api.POST("/purchase-orders", handlers.CreatePurchaseOrder)
	api.GET("/purchase-orders", handlers.GetPurchaseOrders)
	api.GET("/purchase-orders/:id", handlers.GetPurchaseOrder)
	api.PUT("/purchase-orders/:id", handlers.UpdatePurchaseOrder)
	api.PUT("/purchase-orders/:id/status", handlers.UpdatePurchaseOrderStatus)
	api.DELETE("/purchase-orders/:id", handlers.DeletePurchaseOrder)
	api.POST("/purchase-orders/:id/line-items", handlers.AddPurchaseOrderLineItem)
	api.GET("/purchase-orders/:id/line-items", handlers.GetPurchaseOrderLineItems)
	api.PUT("/purchase-orders/:id/line-items/:itemId/reorder", handlers.ReorderPurchaseOrderLineItem)
	api.DELETE("/purchase-orders/:id/line-items/:itemId", handlers.DeletePurchaseOrderLineItem)

	api.POST("/bills", handlers.CreateBill)
	api.GET("/bills", handlers.GetBills)
	api.GET("/bills/:id", handlers.GetBill)
	api.PUT("/bills/:id", handlers.UpdateBill)
	api.PUT("/bills/:id/status", handlers.UpdateBillStatus)
	api.DELETE("/bills/:id", handlers.DeleteBill)
	api.POST("/bills/:id/line-items", handlers.AddBillLineItem)
	api.GET("/bills/:id/line-items", handlers.GetBillLineItems)
	api.PUT("/bills/:id/line-items/:itemId/reorder", handlers.ReorderBillLineItem)
	api.DELETE("/bills/:id/line-items/:itemId", handlers.DeleteBillLineItem)

	api.GET("/configurations/:key", handlers.GetConfiguration)
	api.PUT("/configurations/:key", handlers.SetConfiguration)
	api.POST("/counters/:docType/reset", handlers.ResetCounter)
	api.GET("/histories", handlers.GetHistories)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before the dependencies are up; until DB
	// and Redis are ready, app endpoints answer 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	// One span per request; otelgorm hangs its query spans off it.
	r.Use(func(c *gin.Context) {
		spanCtx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(spanCtx)
		c.Next()
		span.End()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production an explicit allowlist is required; elsewhere allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
