package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/payout"
	"bidr_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrAlreadyCompleted = errors.New("auction already completed")
	ErrNotSeller        = errors.New("only the seller can manage this auction")
	ErrInvalidAuction   = errors.New("invalid auction parameters")
)

var auctionsCompleted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auctions_completed_total",
		Help: "Auction completions by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(auctionsCompleted)
}

// CompletionResult describes the outcome of completing one auction.
type CompletionResult struct {
	AuctionID      int64   `json:"auction_id"`
	Title          string  `json:"title"`
	WinningBidID   int64   `json:"winning_bid_id,omitempty"`
	WinnerID       int64   `json:"winner_id,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	SellerNet      float64 `json:"seller_net,omitempty"`
	PayoutEnqueued bool    `json:"payout_enqueued"`
}

// SweepItem is the per-auction outcome of a sweep.
type SweepItem struct {
	AuctionID int64  `json:"auctionId"`
	Title     string `json:"title"`
	Status    string `json:"status"` // completed | failed | error
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SweepResult aggregates a sweep over expired auctions.
type SweepResult struct {
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Results   []SweepItem `json:"results"`
}

// AuctionService owns the auction lifecycle: creation, completion (winning
// hold capture + seller payout), cancellation (hold refunds), and the
// expired-auction sweep.
type AuctionService struct {
	auctions   *repository.AuctionRepository
	bids       *repository.BidRepository
	users      *repository.UserRepository
	payoutRepo *repository.PayoutRepository
	bidding    *BidService
	payments   PaymentProvider
	queue      *payout.Queue
	audit      *AuditService

	feePercent        float64
	premiumFeePercent float64
}

func NewAuctionService(db *pgxpool.Pool, bidding *BidService, payments PaymentProvider, queue *payout.Queue, feePercent, premiumFeePercent float64) *AuctionService {
	return &AuctionService{
		auctions:          repository.NewAuctionRepository(db),
		bids:              repository.NewBidRepository(db),
		users:             repository.NewUserRepository(db),
		payoutRepo:        repository.NewPayoutRepository(db),
		bidding:           bidding,
		payments:          payments,
		queue:             queue,
		audit:             NewAuditService(db),
		feePercent:        feePercent,
		premiumFeePercent: premiumFeePercent,
	}
}

func (s *AuctionService) feeRate(premium bool) float64 {
	if premium {
		return s.premiumFeePercent
	}
	return s.feePercent
}

// Create validates and inserts a new auction.
func (s *AuctionService) Create(ctx context.Context, sellerID int64, title string, startingPrice, reservePrice float64, endTime time.Time) (*domain.Auction, error) {
	title = strings.TrimSpace(title)
	if title == "" || startingPrice <= 0 || !endTime.After(time.Now()) {
		return nil, ErrInvalidAuction
	}
	if reservePrice < 0 {
		return nil, ErrInvalidAuction
	}

	a := &domain.Auction{
		SellerID:      sellerID,
		Title:         title,
		StartingPrice: startingPrice,
		ReservePrice:  reservePrice,
		EndTime:       endTime,
	}
	if err := s.auctions.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}

	s.audit.Log(ctx, sellerID, domain.AuditActionAuctionCreated, domain.AuditCategoryAuction,
		map[string]interface{}{"auction_id": a.ID, "starting_price": startingPrice})
	return a, nil
}

// Get returns one auction.
func (s *AuctionService) Get(ctx context.Context, id int64) (*domain.Auction, error) {
	a, err := s.auctions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAuctionNotFound
	}
	return a, nil
}

// List returns active auctions.
func (s *AuctionService) List(ctx context.Context, limit int) ([]domain.Auction, error) {
	return s.auctions.List(ctx, limit)
}

// ListExpiredActive returns expired-but-still-active auctions, for the
// side-effect-free monitoring endpoint.
func (s *AuctionService) ListExpiredActive(ctx context.Context) ([]domain.Auction, error) {
	return s.auctions.ListExpiredActive(ctx)
}

// Complete ends an auction and settles the winning bid. The status flip is a
// conditional update, so calling Complete twice cannot double-capture: the
// second call fails with ErrAlreadyCompleted.
func (s *AuctionService) Complete(ctx context.Context, auctionID int64) (*CompletionResult, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load auction: %w", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}

	ended, err := s.auctions.MarkEnded(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("mark auction ended: %w", err)
	}
	if !ended {
		return nil, ErrAlreadyCompleted
	}

	result := &CompletionResult{AuctionID: auctionID, Title: auction.Title}

	top, err := s.bids.GetHighestActive(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load highest bid: %w", err)
	}
	if top == nil {
		// No bids: the auction just ends, no payment action.
		auctionsCompleted.WithLabelValues("no_bids").Inc()
		logger.Info("auction ended with no bids", "auction_id", auctionID)
		return result, nil
	}

	if err := s.bids.SetStatus(ctx, top.ID, domain.BidStatusWinning); err != nil {
		return nil, fmt.Errorf("mark winning bid: %w", err)
	}
	result.WinningBidID = top.ID
	result.WinnerID = top.BidderID
	result.Amount = top.Amount

	seller, err := s.users.GetByID(ctx, auction.SellerID)
	if err != nil {
		return nil, fmt.Errorf("load seller: %w", err)
	}
	if seller == nil {
		return nil, ErrUserNotFound
	}
	result.SellerNet = SellerNet(top.Amount, s.feeRate(seller.Premium))

	switch top.PaymentMethod {
	case domain.PaymentMethodCard:
		// Capture routes the seller's share automatically via the destination
		// charge created at authorization time.
		if _, err := s.payments.CaptureAuthorization(ctx, top.StripePaymentIntentID, CentsFromDollars(top.Amount)); err != nil {
			auctionsCompleted.WithLabelValues("capture_failed").Inc()
			return nil, fmt.Errorf("capture winning authorization: %w", err)
		}
		if err := s.bids.SetAuthorizationStatus(ctx, top.ID, domain.AuthorizationCaptured); err != nil {
			logger.Error("failed to record captured authorization", "bid_id", top.ID, "error", err)
		}
	case domain.PaymentMethodBidcoin:
		// Coins already moved at bid time; the sale is recorded and the
		// seller's share goes out through the transfer queue.
		if seller.HasPaymentAccount() {
			s.enqueuePayout(ctx, auction, seller, result.SellerNet)
			result.PayoutEnqueued = true
		} else {
			logger.Warn("seller has no payment account, payout skipped",
				"auction_id", auctionID, "seller_id", seller.ID)
		}
	}

	// A resolved bid reserves nothing anymore. No credit is issued: the hold
	// became the purchase.
	if err := s.bids.MarkHoldCaptured(ctx, top.ID); err != nil {
		logger.Error("failed to finalize winning hold", "bid_id", top.ID, "error", err)
	}

	// Any bid still active at settlement was outbid but missed its release
	// pass; settlement is the backstop that returns its hold.
	remaining, err := s.bids.ListActiveByAuction(ctx, auctionID)
	if err != nil {
		logger.Error("failed to list leftover bids", "auction_id", auctionID, "error", err)
	} else {
		for i := range remaining {
			if err := s.bidding.ReleaseHold(ctx, &remaining[i], domain.BidStatusOutbid); err != nil {
				logger.Error("failed to release leftover hold",
					"bid_id", remaining[i].ID, "auction_id", auctionID, "error", err)
			}
		}
	}

	auctionsCompleted.WithLabelValues("sold").Inc()
	s.audit.Log(ctx, top.BidderID, domain.AuditActionBidWon, domain.AuditCategoryBid,
		map[string]interface{}{"auction_id": auctionID, "bid_id": top.ID, "amount": top.Amount})
	s.audit.Log(ctx, auction.SellerID, domain.AuditActionAuctionCompleted, domain.AuditCategoryAuction,
		map[string]interface{}{"auction_id": auctionID, "amount": top.Amount, "seller_net": result.SellerNet})
	logger.Info("auction completed",
		"auction_id", auctionID, "winning_bid", top.ID, "amount", top.Amount,
		"seller_net", result.SellerNet, "method", top.PaymentMethod)

	return result, nil
}

func (s *AuctionService) enqueuePayout(ctx context.Context, auction *domain.Auction, seller *domain.User, net float64) {
	p := &domain.Payout{
		AuctionID:       auction.ID,
		SellerID:        seller.ID,
		SellerAccountID: seller.StripeAccountID,
		Amount:          net,
	}
	if err := s.payoutRepo.Create(ctx, p); err != nil {
		// The queue still gets the job; only restart resumption is lost.
		logger.Error("failed to persist payout", "auction_id", auction.ID, "error", err)
	}

	s.queue.Enqueue(payout.Job{
		ID:        p.ID,
		AuctionID: auction.ID,
		SellerID:  seller.ID,
		AccountID: seller.StripeAccountID,
		Amount:    net,
	})
	s.audit.Log(ctx, seller.ID, domain.AuditActionPayoutEnqueued, domain.AuditCategoryPayout,
		map[string]interface{}{"auction_id": auction.ID, "amount": net})
}

// SweepExpired completes every active auction past its end time. One
// auction's failure never stops the sweep; each outcome is reported
// individually alongside aggregate counts.
func (s *AuctionService) SweepExpired(ctx context.Context) (*SweepResult, error) {
	expired, err := s.auctions.ListExpiredActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}

	result := &SweepResult{Results: []SweepItem{}}
	for _, a := range expired {
		item := SweepItem{AuctionID: a.ID, Title: a.Title}

		_, err := s.Complete(ctx, a.ID)
		switch {
		case err == nil:
			item.Status = "completed"
			result.Completed++
		case errors.Is(err, ErrAlreadyCompleted):
			item.Status = "failed"
			item.Message = err.Error()
			result.Failed++
		default:
			item.Status = "error"
			item.Error = err.Error()
			result.Failed++
			logger.Error("sweep failed to complete auction", "auction_id", a.ID, "error", err)
		}

		result.Results = append(result.Results, item)
	}

	logger.Info("expired auction sweep finished",
		"total", len(expired), "completed", result.Completed, "failed", result.Failed)
	return result, nil
}

// Cancel marks an auction cancelled and refunds every outstanding hold. The
// status flip happens first so no new bid can slip in while holds are being
// returned.
func (s *AuctionService) Cancel(ctx context.Context, auctionID, callerID int64) error {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("load auction: %w", err)
	}
	if auction == nil {
		return ErrAuctionNotFound
	}
	if auction.SellerID != callerID {
		return ErrNotSeller
	}

	cancelled, err := s.auctions.MarkCancelled(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("mark auction cancelled: %w", err)
	}
	if !cancelled {
		return ErrAlreadyCompleted
	}

	active, err := s.bids.ListActiveByAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("list active bids: %w", err)
	}
	for i := range active {
		if err := s.bidding.ReleaseHold(ctx, &active[i], domain.BidStatusCancelled); err != nil {
			logger.Error("failed to release hold on cancellation",
				"auction_id", auctionID, "bid_id", active[i].ID, "error", err)
			continue
		}
		s.audit.Log(ctx, active[i].BidderID, domain.AuditActionBidRefunded, domain.AuditCategoryBid,
			map[string]interface{}{"auction_id": auctionID, "bid_id": active[i].ID})
	}

	auctionsCompleted.WithLabelValues("cancelled").Inc()
	s.audit.Log(ctx, callerID, domain.AuditActionAuctionCancelled, domain.AuditCategoryAuction,
		map[string]interface{}{"auction_id": auctionID})
	logger.Info("auction cancelled", "auction_id", auctionID, "bids_refunded", len(active))
	return nil
}
