package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrOwnAuction          = errors.New("cannot bid on own auction")
	ErrAuctionEnded        = errors.New("auction has ended")
	ErrBelowMinimum        = errors.New("minimum bid increment not met")
	ErrNoSellerAccount     = errors.New("seller payment account not configured")
	ErrNoPaymentMethod     = errors.New("no stored payment method")
	ErrAuthorizationFailed = errors.New("payment authorization failed")
	ErrPriceChanged        = errors.New("auction price changed, please bid again")
	ErrUnsupportedPayment  = errors.New("unsupported payment method")
)

var (
	bidsPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bids_placed_total",
			Help: "Accepted bids by payment method",
		},
		[]string{"method"},
	)
	bidsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_rejected_total",
			Help: "Bids rejected by validation or payment failure",
		},
	)
	holdsReleased = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bid_holds_released_total",
			Help: "Holds released on outbid or cancellation",
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(bidsPlaced, bidsRejected, holdsReleased)
}

// BidService governs the bid lifecycle: active -> outbid | winning | cancelled.
// A hold is taken at placement (card authorization or coin debit) and released
// when the bid is superseded or the auction is cancelled.
type BidService struct {
	auctions *repository.AuctionRepository
	bids     *repository.BidRepository
	users    *repository.UserRepository
	wallet   *WalletService
	payments PaymentProvider

	feePercent        float64
	premiumFeePercent float64
}

func NewBidService(db *pgxpool.Pool, wallet *WalletService, payments PaymentProvider, feePercent, premiumFeePercent float64) *BidService {
	return &BidService{
		auctions:          repository.NewAuctionRepository(db),
		bids:              repository.NewBidRepository(db),
		users:             repository.NewUserRepository(db),
		wallet:            wallet,
		payments:          payments,
		feePercent:        feePercent,
		premiumFeePercent: premiumFeePercent,
	}
}

func (s *BidService) feeRate(premium bool) float64 {
	if premium {
		return s.premiumFeePercent
	}
	return s.feePercent
}

// PlaceBid validates the bid, takes the appropriate hold, commits the new
// price with a compare-and-swap against the observed current price, and
// releases every outbid hold still active. If any step fails, the hold taken
// so far is unwound so no funds are left reserved for a rejected bid.
func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID int64, amount float64, method domain.PaymentMethod) (*domain.Bid, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("load auction: %w", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}

	if auction.SellerID == bidderID {
		bidsRejected.Inc()
		return nil, ErrOwnAuction
	}
	if auction.Status != domain.AuctionStatusActive || auction.Expired(time.Now()) {
		bidsRejected.Inc()
		return nil, ErrAuctionEnded
	}
	if amount < MinimumBid(auction.CurrentPrice) {
		bidsRejected.Inc()
		return nil, ErrBelowMinimum
	}

	bid := &domain.Bid{
		AuctionID:     auctionID,
		BidderID:      bidderID,
		Amount:        amount,
		Status:        domain.BidStatusActive,
		PaymentMethod: method,
	}

	switch method {
	case domain.PaymentMethodCard:
		if err := s.authorizeCard(ctx, auction, bidderID, amount, bid); err != nil {
			bidsRejected.Inc()
			return nil, err
		}
	case domain.PaymentMethodBidcoin:
		coins := CoinsFromDollars(amount)
		ref := &LedgerRef{ID: auctionID, Table: "auctions"}
		meta := map[string]interface{}{"bid_amount": amount}
		if _, err := s.wallet.Spend(ctx, bidderID, coins, domain.TxAuctionPurchase, ref, meta); err != nil {
			bidsRejected.Inc()
			return nil, err
		}
		bid.BidcoinHold = coins
	default:
		bidsRejected.Inc()
		return nil, ErrUnsupportedPayment
	}

	// Commit the price bump only if nobody got there first. A lost swap means
	// a concurrent bid was accepted; our hold is returned and the bidder must
	// re-validate against the new price.
	swapped, err := s.auctions.UpdateCurrentPrice(ctx, auctionID, auction.CurrentPrice, amount)
	if err == nil && !swapped {
		err = ErrPriceChanged
	}
	if err != nil {
		s.unwindHold(ctx, bid)
		bidsRejected.Inc()
		return nil, err
	}

	if err := s.bids.Create(ctx, bid); err != nil {
		s.unwindHold(ctx, bid)
		if _, revertErr := s.auctions.UpdateCurrentPrice(ctx, auctionID, amount, auction.CurrentPrice); revertErr != nil {
			logger.Error("failed to revert auction price after bid insert failure",
				"auction_id", auctionID, "error", revertErr)
		}
		return nil, fmt.Errorf("create bid: %w", err)
	}

	// Outbid holds are released only after the new bid row exists. Reading
	// the active set here, instead of snapshotting the previous top before
	// the swap, also catches a lower bid whose insert landed between another
	// bidder's release pass and ours.
	s.releaseOutbid(ctx, auctionID, bid.ID, amount)

	bidsPlaced.WithLabelValues(string(method)).Inc()
	logger.Info("bid placed",
		"auction_id", auctionID, "bid_id", bid.ID, "bidder_id", bidderID,
		"amount", amount, "method", method)

	return bid, nil
}

// releaseOutbid releases every active bid on the auction that is strictly
// below the accepted amount. A concurrently accepted higher bid is left
// alone; its own release pass (or settlement) owns it.
func (s *BidService) releaseOutbid(ctx context.Context, auctionID, acceptedBidID int64, acceptedAmount float64) {
	active, err := s.bids.ListActiveByAuction(ctx, auctionID)
	if err != nil {
		logger.Error("failed to list active bids for release",
			"auction_id", auctionID, "error", err)
		return
	}

	for i := range active {
		b := &active[i]
		if b.ID == acceptedBidID || b.Amount >= acceptedAmount {
			continue
		}
		if err := s.ReleaseHold(ctx, b, domain.BidStatusOutbid); err != nil {
			// The new bid stands; the stale hold is retried on the next
			// release pass or at settlement.
			logger.Error("failed to release outbid hold",
				"bid_id", b.ID, "auction_id", auctionID, "error", err)
		}
	}
}

// authorizeCard places a manual-capture hold on the bidder's stored card,
// routed to the seller's connected account with the platform fee withheld.
func (s *BidService) authorizeCard(ctx context.Context, auction *domain.Auction, bidderID int64, amount float64, bid *domain.Bid) error {
	bidder, err := s.users.GetByID(ctx, bidderID)
	if err != nil {
		return fmt.Errorf("load bidder: %w", err)
	}
	if bidder == nil {
		return ErrUserNotFound
	}
	if bidder.StripeCustomerID == "" {
		return ErrNoPaymentMethod
	}

	seller, err := s.users.GetByID(ctx, auction.SellerID)
	if err != nil {
		return fmt.Errorf("load seller: %w", err)
	}
	if seller == nil || !seller.HasPaymentAccount() {
		return ErrNoSellerAccount
	}

	fee := PlatformFeeCents(amount, s.feeRate(seller.Premium))
	pi, err := s.payments.CreateAuthorization(ctx, CentsFromDollars(amount), "usd", bidder.StripeCustomerID, seller.StripeAccountID, fee)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorizationFailed, err)
	}

	bid.StripePaymentIntentID = pi.ID
	bid.AuthorizationStatus = domain.AuthorizationAuthorized
	bid.AuthorizedAmount = amount
	return nil
}

// unwindHold returns the hold taken for a bid that was ultimately rejected.
func (s *BidService) unwindHold(ctx context.Context, bid *domain.Bid) {
	switch bid.PaymentMethod {
	case domain.PaymentMethodCard:
		if bid.StripePaymentIntentID != "" {
			if err := s.payments.CancelAuthorization(ctx, bid.StripePaymentIntentID); err != nil {
				logger.Error("failed to cancel authorization for rejected bid",
					"payment_intent", bid.StripePaymentIntentID, "error", err)
			}
		}
	case domain.PaymentMethodBidcoin:
		if bid.BidcoinHold > 0 {
			ref := &LedgerRef{ID: bid.AuctionID, Table: "auctions"}
			meta := map[string]interface{}{"reason": "bid_rejected"}
			if _, err := s.wallet.Award(ctx, bid.BidderID, bid.BidcoinHold, domain.TxAdjustment, ref, meta); err != nil {
				logger.Error("failed to return coins for rejected bid",
					"bidder_id", bid.BidderID, "coins", bid.BidcoinHold, "error", err)
			}
		}
	}
}

// ReleaseHold returns a bid's hold and moves it to a terminal status: card
// authorizations are cancelled, coin holds are credited back in full. The
// funds move first; the status flips only once the hold is back, so a failed
// release leaves the bid active and findable by the next release pass.
func (s *BidService) ReleaseHold(ctx context.Context, bid *domain.Bid, status domain.BidStatus) error {
	switch bid.PaymentMethod {
	case domain.PaymentMethodCard:
		if bid.StripePaymentIntentID != "" && bid.AuthorizationStatus == domain.AuthorizationAuthorized {
			if err := s.payments.CancelAuthorization(ctx, bid.StripePaymentIntentID); err != nil {
				return fmt.Errorf("cancel authorization: %w", err)
			}
			if err := s.bids.SetAuthorizationStatus(ctx, bid.ID, domain.AuthorizationCancelled); err != nil {
				return fmt.Errorf("record cancelled authorization: %w", err)
			}
		}
	case domain.PaymentMethodBidcoin:
		if bid.BidcoinHold > 0 && !bid.HoldsReleased {
			ref := &LedgerRef{ID: bid.ID, Table: "bids"}
			meta := map[string]interface{}{"reason": "hold_release", "bid_status": string(status)}
			if _, err := s.wallet.Award(ctx, bid.BidderID, bid.BidcoinHold, domain.TxAdjustment, ref, meta); err != nil {
				return fmt.Errorf("credit hold back: %w", err)
			}
		}
	}

	if err := s.bids.MarkHoldsReleased(ctx, bid.ID); err != nil {
		return fmt.Errorf("mark holds released: %w", err)
	}
	if err := s.bids.SetStatus(ctx, bid.ID, status); err != nil {
		return fmt.Errorf("set bid status: %w", err)
	}

	holdsReleased.WithLabelValues(string(bid.PaymentMethod)).Inc()
	return nil
}

// ListByBidder returns a bidder's recent bids.
func (s *BidService) ListByBidder(ctx context.Context, bidderID int64, limit int) ([]domain.Bid, error) {
	return s.bids.ListByBidder(ctx, bidderID, limit)
}
