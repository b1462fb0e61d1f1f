package api

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/db"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/subscriber"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

type APIHandler struct {
	dbStore *db.PostgresStore
	sub     *subscriber.AlgorandSubscriber
	wsHub   *Hub
}

// SetupRouter builds the gin engine with the status, transaction and
// websocket endpoints.
func SetupRouter(dbStore *db.PostgresStore, sub *subscriber.AlgorandSubscriber, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// CORS is configurable via ALLOWED_ORIGINS; empty or "*" allows all.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{dbStore: dbStore, sub: sub, wsHub: wsHub}

	r.GET("/health", handler.handleHealth)
	r.GET("/ws", wsHub.Subscribe)

	limiter := NewRateLimiter(120, 30)
	api := r.Group("/api", AuthMiddleware(), limiter.Middleware())
	{
		api.GET("/status", handler.handleStatus)
		api.GET("/transactions", handler.handleListTransactions)
	}

	return r
}

// handleHealth reports liveness and which optional subsystems are wired.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"dbConnected": h.dbStore != nil,
		"wsClients":   h.wsHub.ClientCount(),
	})
}

// handleStatus returns the subscriber's progress counters and filter names.
func (h *APIHandler) handleStatus(c *gin.Context) {
	if h.sub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Subscriber not running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress": h.sub.Progress(),
		"filters":  h.sub.FilterNames(),
	})
}

// handleListTransactions pages through persisted matches, newest first.
func (h *APIHandler) handleListTransactions(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txns, totalCount, err := h.dbStore.ListTransactions(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       txns,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
	})
}

// BroadcastMatches returns a batch listener that pushes every matched batch
// to connected websocket clients.
func BroadcastMatches(wsHub *Hub, filterName string) func(data interface{}) {
	return func(data interface{}) {
		txns, ok := data.([]*models.SubscribedTransaction)
		if !ok || len(txns) == 0 {
			return
		}
		wsHub.BroadcastJSON(gin.H{
			"type":         "transactions",
			"filter":       filterName,
			"transactions": txns,
		})
		log.Printf("[API] Broadcast %d transaction(s) for filter %q", len(txns), filterName)
	}
}
