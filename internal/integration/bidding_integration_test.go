package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/payout"
	"bidr_backend/internal/repository"
	"bidr_backend/internal/service"
	"bidr_backend/internal/stripe"

	"github.com/jackc/pgx/v5/pgxpool"
)

// fakeProvider satisfies service.PaymentProvider without network calls.
type fakeProvider struct {
	mu        sync.Mutex
	seq       int
	captured  []string
	cancelled []string
	cancelErr error
}

func (f *fakeProvider) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *fakeProvider) CreateCustomer(_ context.Context, email, _ string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &stripe.Customer{ID: f.next("cus"), Email: email}, nil
}

func (f *fakeProvider) CreateConnectedAccount(_ context.Context, _ string) (*stripe.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &stripe.Account{ID: f.next("acct"), ChargesEnabled: true}, nil
}

func (f *fakeProvider) CreateAuthorization(_ context.Context, amountCents int64, _, _, _ string, _ int64) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &stripe.PaymentIntent{ID: f.next("pi"), Status: "requires_capture", Amount: amountCents}, nil
}

func (f *fakeProvider) CaptureAuthorization(_ context.Context, id string, amountCents int64) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, id)
	return &stripe.PaymentIntent{ID: id, Status: "succeeded", Amount: amountCents}, nil
}

func (f *fakeProvider) CancelAuthorization(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeProvider) CreateRefund(_ context.Context, id string) (*stripe.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &stripe.Refund{ID: f.next("re"), Status: "succeeded"}, nil
}

func (f *fakeProvider) CreateTransfer(_ context.Context, amountCents int64, _, dest string, _ int64) (*stripe.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &stripe.Transfer{ID: f.next("tr"), Amount: amountCents, Destination: dest}, nil
}

type settlementEnv struct {
	db       *pgxpool.Pool
	provider *fakeProvider
	wallet   *service.WalletService
	bids     *service.BidService
	auctions *service.AuctionService
	bidRepo  *repository.BidRepository
	queue    *payout.Queue
}

func newSettlementEnv(t *testing.T) *settlementEnv {
	t.Helper()
	db := connect(t)

	provider := &fakeProvider{}
	wallet := service.NewWalletService(db)
	bids := service.NewBidService(db, wallet, provider, 5, 2.5)
	queue := payout.NewQueue(func(_ context.Context, job payout.Job) (string, error) {
		return "tr_settled", nil
	}, repository.NewPayoutRepository(db), time.Millisecond, 3)

	return &settlementEnv{
		db:       db,
		provider: provider,
		wallet:   wallet,
		bids:     bids,
		auctions: service.NewAuctionService(db, bids, provider, queue, 5, 2.5),
		bidRepo:  repository.NewBidRepository(db),
		queue:    queue,
	}
}

func (e *settlementEnv) fundedUser(t *testing.T, coins int64) int64 {
	t.Helper()
	id := createUser(t, e.db, fmt.Sprintf("bidder_%d@test", time.Now().UnixNano()))
	if coins > 0 {
		if _, err := e.wallet.Award(context.Background(), id, coins, domain.TxAdjustment, nil, nil); err != nil {
			t.Fatalf("fund user: %v", err)
		}
	}
	return id
}

func (e *settlementEnv) setPaymentAccount(t *testing.T, userID int64, accountID string) {
	t.Helper()
	if _, err := e.db.Exec(context.Background(),
		`UPDATE users SET stripe_account_id = $2 WHERE id = $1`, userID, accountID); err != nil {
		t.Fatalf("set account: %v", err)
	}
}

func (e *settlementEnv) setCustomer(t *testing.T, userID int64, customerID string) {
	t.Helper()
	if _, err := e.db.Exec(context.Background(),
		`UPDATE users SET stripe_customer_id = $2 WHERE id = $1`, userID, customerID); err != nil {
		t.Fatalf("set customer: %v", err)
	}
}

func (e *settlementEnv) newAuction(t *testing.T, sellerID int64, startingPrice float64) *domain.Auction {
	t.Helper()
	a, err := e.auctions.Create(context.Background(), sellerID, "settlement test item", startingPrice, 0, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}
	return a
}

func TestPlaceBidValidations(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	bidder := e.fundedUser(t, 100) // 100 coins = $1.00
	a := e.newAuction(t, seller, 100)

	if _, err := e.bids.PlaceBid(ctx, a.ID, seller, 105, domain.PaymentMethodBidcoin); !errors.Is(err, service.ErrOwnAuction) {
		t.Errorf("own auction: got %v", err)
	}
	if _, err := e.bids.PlaceBid(ctx, a.ID, bidder, 104.99, domain.PaymentMethodBidcoin); !errors.Is(err, service.ErrBelowMinimum) {
		t.Errorf("below minimum: got %v", err)
	}
	if _, err := e.bids.PlaceBid(ctx, a.ID, bidder, 105, domain.PaymentMethodBidcoin); !errors.Is(err, service.ErrInsufficientBalance) {
		t.Errorf("insufficient balance: got %v", err)
	}
	if _, err := e.bids.PlaceBid(ctx, a.ID, bidder, 105, domain.PaymentMethodHybrid); !errors.Is(err, service.ErrUnsupportedPayment) {
		t.Errorf("hybrid method: got %v", err)
	}

	// Expired auctions reject bids even while still marked active.
	expired := &domain.Auction{
		SellerID:      seller,
		Title:         "already over",
		StartingPrice: 10,
		CurrentPrice:  10,
		Status:        domain.AuctionStatusActive,
		EndTime:       time.Now().Add(-time.Minute),
	}
	if err := repository.NewAuctionRepository(e.db).Create(ctx, expired); err != nil {
		t.Fatalf("create expired auction: %v", err)
	}
	if _, err := e.bids.PlaceBid(ctx, expired.ID, bidder, 11, domain.PaymentMethodBidcoin); !errors.Is(err, service.ErrAuctionEnded) {
		t.Errorf("expired auction: got %v", err)
	}

	// Nothing above should have taken a hold.
	balance, err := e.wallet.Balance(ctx, bidder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 100 {
		t.Errorf("rejected bids must not move coins, balance = %d", balance)
	}
}

func TestOutbidReleasesCoinHold(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	first := e.fundedUser(t, 20000)
	second := e.fundedUser(t, 20000)
	a := e.newAuction(t, seller, 100)

	b1, err := e.bids.PlaceBid(ctx, a.ID, first, 105, domain.PaymentMethodBidcoin)
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	balance, _ := e.wallet.Balance(ctx, first)
	if balance != 20000-10500 {
		t.Fatalf("hold not taken, balance = %d", balance)
	}

	if _, err := e.bids.PlaceBid(ctx, a.ID, second, 110, domain.PaymentMethodBidcoin); err != nil {
		t.Fatalf("second bid: %v", err)
	}

	// First bidder's coins come back in full and the bid is terminal.
	balance, _ = e.wallet.Balance(ctx, first)
	if balance != 20000 {
		t.Errorf("outbid hold not returned, balance = %d", balance)
	}
	got, err := e.bidRepo.GetByID(ctx, b1.ID)
	if err != nil {
		t.Fatalf("load bid: %v", err)
	}
	if got.Status != domain.BidStatusOutbid || !got.HoldsReleased || got.BidcoinHold != 0 {
		t.Errorf("outbid bid not released: %+v", got)
	}
}

func TestPlaceBidReleasesStaleActiveBid(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	stale := e.fundedUser(t, 20000)
	winner := e.fundedUser(t, 20000)
	a := e.newAuction(t, seller, 100)

	// A bid row whose insert landed after every release pass: it holds coins
	// but nobody remembers it as the previous top.
	if _, err := e.wallet.Spend(ctx, stale, 10500, domain.TxAuctionPurchase, nil, nil); err != nil {
		t.Fatalf("take stale hold: %v", err)
	}
	staleBid := &domain.Bid{
		AuctionID:     a.ID,
		BidderID:      stale,
		Amount:        105,
		Status:        domain.BidStatusActive,
		PaymentMethod: domain.PaymentMethodBidcoin,
		BidcoinHold:   10500,
	}
	if err := e.bidRepo.Create(ctx, staleBid); err != nil {
		t.Fatalf("insert stale bid: %v", err)
	}

	if _, err := e.bids.PlaceBid(ctx, a.ID, winner, 110, domain.PaymentMethodBidcoin); err != nil {
		t.Fatalf("winning bid: %v", err)
	}

	// The release pass scans the active set, so the stale bid is caught even
	// though it was never the observed previous top.
	got, err := e.bidRepo.GetByID(ctx, staleBid.ID)
	if err != nil {
		t.Fatalf("load stale bid: %v", err)
	}
	if got.Status != domain.BidStatusOutbid || !got.HoldsReleased {
		t.Errorf("stale bid not released: %+v", got)
	}
	balance, _ := e.wallet.Balance(ctx, stale)
	if balance != 20000 {
		t.Errorf("stale hold not returned, balance = %d", balance)
	}
}

func TestCompleteSettlesBidcoinSale(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	e.setPaymentAccount(t, seller, "acct_seller")
	loser := e.fundedUser(t, 20000)
	winner := e.fundedUser(t, 20000)
	a := e.newAuction(t, seller, 100)

	if _, err := e.bids.PlaceBid(ctx, a.ID, loser, 105, domain.PaymentMethodBidcoin); err != nil {
		t.Fatalf("losing bid: %v", err)
	}
	wb, err := e.bids.PlaceBid(ctx, a.ID, winner, 110, domain.PaymentMethodBidcoin)
	if err != nil {
		t.Fatalf("winning bid: %v", err)
	}

	result, err := e.auctions.Complete(ctx, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.WinningBidID != wb.ID || !result.PayoutEnqueued {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.SellerNet != 104.50 {
		t.Errorf("seller net = %v, want 104.50", result.SellerNet)
	}

	// The winning hold is finalized without any credit back.
	got, err := e.bidRepo.GetByID(ctx, wb.ID)
	if err != nil {
		t.Fatalf("load winning bid: %v", err)
	}
	if got.Status != domain.BidStatusWinning {
		t.Errorf("status = %q", got.Status)
	}
	if !got.HoldsReleased || got.BidcoinHold != 0 {
		t.Errorf("winning hold not finalized: holds_released=%v hold=%d", got.HoldsReleased, got.BidcoinHold)
	}
	balance, _ := e.wallet.Balance(ctx, winner)
	if balance != 20000-11000 {
		t.Errorf("winner must stay debited, balance = %d", balance)
	}

	// At most one winning bid per auction.
	var winningCount int
	if err := e.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bids WHERE auction_id = $1 AND status = 'winning'`, a.ID,
	).Scan(&winningCount); err != nil {
		t.Fatalf("count winning: %v", err)
	}
	if winningCount != 1 {
		t.Errorf("winning bids = %d, want 1", winningCount)
	}

	// Completion is idempotent: the second call cannot double-settle.
	if _, err := e.auctions.Complete(ctx, a.ID); !errors.Is(err, service.ErrAlreadyCompleted) {
		t.Errorf("second complete: got %v", err)
	}

	e.queue.Wait()
	p, err := repository.NewPayoutRepository(e.db).GetByAuction(ctx, a.ID)
	if err != nil {
		t.Fatalf("load payout: %v", err)
	}
	if p.Status != domain.PayoutStatusCompleted {
		t.Errorf("payout status = %q", p.Status)
	}
}

func TestCancelRefundsActiveHolds(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	bidder := e.fundedUser(t, 20000)
	a := e.newAuction(t, seller, 100)

	b, err := e.bids.PlaceBid(ctx, a.ID, bidder, 105, domain.PaymentMethodBidcoin)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}

	if err := e.auctions.Cancel(ctx, a.ID, seller); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	balance, _ := e.wallet.Balance(ctx, bidder)
	if balance != 20000 {
		t.Errorf("cancelled hold not returned, balance = %d", balance)
	}
	got, err := e.bidRepo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("load bid: %v", err)
	}
	if got.Status != domain.BidStatusCancelled || !got.HoldsReleased {
		t.Errorf("bid not cancelled cleanly: %+v", got)
	}
}

func TestFailedReleaseKeepsBidFindable(t *testing.T) {
	e := newSettlementEnv(t)
	ctx := context.Background()

	seller := e.fundedUser(t, 0)
	e.setPaymentAccount(t, seller, "acct_seller")
	bidder := e.fundedUser(t, 0)
	e.setCustomer(t, bidder, "cus_bidder")
	a := e.newAuction(t, seller, 100)

	b, err := e.bids.PlaceBid(ctx, a.ID, bidder, 105, domain.PaymentMethodCard)
	if err != nil {
		t.Fatalf("card bid: %v", err)
	}

	e.provider.cancelErr = errors.New("processor unavailable")
	if err := e.auctions.Cancel(ctx, a.ID, seller); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The release failed, so the bid must stay active for a later pass
	// instead of going terminal with a live authorization.
	got, err := e.bidRepo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("load bid: %v", err)
	}
	if got.Status != domain.BidStatusActive {
		t.Errorf("bid with unreleased hold must stay active, status = %q", got.Status)
	}
	if got.HoldsReleased {
		t.Error("holds_released must stay false after a failed release")
	}

	// Once the processor recovers the same pass succeeds.
	e.provider.cancelErr = nil
	if err := e.bids.ReleaseHold(ctx, got, domain.BidStatusCancelled); err != nil {
		t.Fatalf("retry release: %v", err)
	}
	got, err = e.bidRepo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("reload bid: %v", err)
	}
	if got.Status != domain.BidStatusCancelled || !got.HoldsReleased {
		t.Errorf("retried release did not finish: %+v", got)
	}
}
