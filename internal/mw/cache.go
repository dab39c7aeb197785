package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// ledgerRead is a stored 2xx answer to a ledger GET.
type ledgerRead struct {
	status  int
	headers http.Header
	body    []byte
}

// teeWriter copies the response body while it is written to the client.
type teeWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache answers repeated ledger GETs from store for ttl, keyed by the request
// URI including its query. Other methods pass through.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, found := store.Get(key); found {
			read := v.(ledgerRead)
			for k, vals := range read.headers {
				c.Writer.Header()[k] = vals
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(read.status)
			c.Writer.Write(read.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = tee
		c.Next()

		status := tee.Status()
		if status < 200 || status >= 300 {
			return
		}
		store.Set(key, ledgerRead{status: status, headers: tee.Header().Clone(), body: tee.body.Bytes()}, ttl)
	}
}

// Invalidate flushes the cache after any successful request that is not a GET,
// so writes to the ledger are visible on the next read.
func Invalidate(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			log.Debug().Str("path", c.FullPath()).Int("entries", store.ItemCount()).Msg("flushing response cache")
			store.Flush()
		}
	}
}
