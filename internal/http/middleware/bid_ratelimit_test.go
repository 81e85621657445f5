package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func resetBidders() {
	bidMu.Lock()
	bidders = make(map[int64]*bidderInfo)
	bidMu.Unlock()
}

func hitBidLimit(limit gin.HandlerFunc, userID int64) int {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/bids", nil)
	c.Set("user_id", userID)
	limit(c)
	return w.Code
}

func TestBidRateLimitBlocksOverLimit(t *testing.T) {
	resetBidders()
	gin.SetMode(gin.TestMode)
	limit := BidRateLimit(2, time.Minute)

	for i := 0; i < 2; i++ {
		if got := hitBidLimit(limit, 42); got != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, got)
		}
	}
	if got := hitBidLimit(limit, 42); got != http.StatusTooManyRequests {
		t.Errorf("over-limit request: status = %d", got)
	}

	// Other users are unaffected.
	if got := hitBidLimit(limit, 43); got != http.StatusOK {
		t.Errorf("other user: status = %d", got)
	}
}

func TestPruneBiddersDropsLapsedWindows(t *testing.T) {
	resetBidders()
	now := time.Now()

	bidMu.Lock()
	bidders[1] = &bidderInfo{last: now.Add(-2 * time.Minute), count: 5}
	bidders[2] = &bidderInfo{last: now, count: 1}
	pruneBidders(now, time.Minute)
	_, staleKept := bidders[1]
	_, freshKept := bidders[2]
	bidMu.Unlock()

	if staleKept {
		t.Error("lapsed entry survived prune")
	}
	if !freshKept {
		t.Error("in-window entry was pruned")
	}
}
