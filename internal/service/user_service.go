package service

import (
	"context"
	"errors"
	"fmt"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const pgUniqueViolation = "23505"

// UserService handles registration, login and seller onboarding.
type UserService struct {
	users       *repository.UserRepository
	wallet      *WalletService
	payments    PaymentProvider
	signupBonus int64
}

func NewUserService(db *pgxpool.Pool, wallet *WalletService, payments PaymentProvider, signupBonus int64) *UserService {
	return &UserService{
		users:       repository.NewUserRepository(db),
		wallet:      wallet,
		payments:    payments,
		signupBonus: signupBonus,
	}
}

// Register creates a user, registers them with the payment processor and
// awards the signup bonus.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Processor registration is best-effort; the customer can be created
	// later when a card is first stored.
	if customer, err := s.payments.CreateCustomer(ctx, email, username); err != nil {
		logger.Warn("failed to create payment customer", "user_id", u.ID, "error", err)
	} else {
		u.StripeCustomerID = customer.ID
		if err := s.users.SetStripeCustomerID(ctx, u.ID, customer.ID); err != nil {
			logger.Error("failed to store payment customer id", "user_id", u.ID, "error", err)
		}
	}

	ref := &LedgerRef{ID: u.ID, Table: "users"}
	if _, err := s.wallet.Award(ctx, u.ID, s.signupBonus, domain.TxSignupBonus, ref, nil); err != nil {
		logger.Error("failed to award signup bonus", "user_id", u.ID, "error", err)
	}

	logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and returns the user.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// OnboardSeller creates a connected payment account so the user can receive
// payouts. Idempotent: an existing account is returned unchanged.
func (s *UserService) OnboardSeller(ctx context.Context, userID int64) (string, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.StripeAccountID != "" {
		return u.StripeAccountID, nil
	}

	account, err := s.payments.CreateConnectedAccount(ctx, u.Email)
	if err != nil {
		return "", fmt.Errorf("create connected account: %w", err)
	}
	if err := s.users.SetStripeAccountID(ctx, userID, account.ID); err != nil {
		return "", fmt.Errorf("store connected account id: %w", err)
	}

	logger.Info("seller onboarded", "user_id", userID, "account_id", account.ID)
	return account.ID, nil
}
