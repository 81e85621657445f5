package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bidderInfo struct {
	last  time.Time
	count int
}

var bidMu sync.Mutex
var bidders = make(map[int64]*bidderInfo)

// pruneBidders drops entries whose window has lapsed. Called under bidMu.
func pruneBidders(now time.Time, window time.Duration) {
	for id, bi := range bidders {
		if now.Sub(bi.last) > window {
			delete(bidders, id)
		}
	}
}

// BidRateLimit limits bid placement per user (not per IP). Requires the JWT
// middleware to have stored user_id in the context.
func BidRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uidVal, ok := c.Get("user_id")
		if !ok {
			c.Next()
			return
		}
		userID, ok := uidVal.(int64)
		if !ok {
			c.Next()
			return
		}

		bidMu.Lock()
		now := time.Now()
		if len(bidders) > 1024 {
			pruneBidders(now, window)
		}

		bi, ok := bidders[userID]
		if !ok || now.Sub(bi.last) > window {
			bidders[userID] = &bidderInfo{last: now, count: 1}
			bidMu.Unlock()
			c.Next()
			return
		}

		bi.count++
		count := bi.count
		bidMu.Unlock()

		if count > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
