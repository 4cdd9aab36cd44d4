package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	portidempotency "github.com/alanyang/project-registry/internal/port/idempotency"
	"github.com/alanyang/project-registry/internal/transport/respond"
)

const (
	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// noisyPaths are high-frequency read paths logged at Debug to keep Info clean.
var noisyPaths = map[string]bool{
	"/api/ws":  true,
	"/health":  true,
	"/healthz": true,
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(HeaderRequestID, reqID)

		c.Next()

		if c.Request.Method == http.MethodOptions {
			return
		}
		level := slog.LevelInfo
		if c.Request.Method == http.MethodGet && noisyPaths[c.Request.URL.Path] {
			level = slog.LevelDebug
		}

		slog.Log(c.Request.Context(), level, "request",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", HeaderIdempotencyKey, HeaderRequestID},
		ExposeHeaders:   []string{HeaderRequestID, HeaderReplayed},
		MaxAge:          12 * time.Hour,
	})
}

// RateLimit applies one token bucket to the whole server. A non-positive
// rps disables it.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"code":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// storedResponse is what the idempotency store keeps per key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the first response recorded for a POST
// carrying an Idempotency-Key. 5xx responses are not recorded so the client
// can retry them.
func IdempotencyMiddleware(store portidempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		storeKey := c.Request.Method + " " + c.Request.URL.Path + " " + key

		raw, ok, err := store.Check(ctx, storeKey)
		if err != nil {
			slog.ErrorContext(ctx, "idempotency check failed", "key", key, "error", err)
			respond.Error(c, err)
			c.Abort()
			return
		}
		if ok {
			var prev storedResponse
			if err := json.Unmarshal(raw, &prev); err == nil {
				c.Header(HeaderReplayed, "true")
				c.Data(prev.Status, prev.ContentType, prev.Body)
				c.Abort()
				return
			}
			slog.WarnContext(ctx, "discarding unreadable idempotency record", "key", key)
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		rec, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			return
		}
		op := c.Request.Method + " " + c.FullPath()
		if err := store.Store(ctx, storeKey, op, rec); err != nil {
			slog.ErrorContext(ctx, "idempotency store failed", "key", key, "error", err)
		}
	}
}
