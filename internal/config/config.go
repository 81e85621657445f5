package config

import (
	"os"
	"strconv"
	"time"

	"bidr_backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort         string
	DatabaseURL     string
	JWTSecret       string
	StripeSecretKey string

	// BaseURL is used by the sweep CLI to self-call the completion endpoint.
	BaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Marketplace settings
	PlatformFeePercent float64 // standard sellers
	PremiumFeePercent  float64 // premium sellers
	SignupBonusCoins   int64
	ReferralBonusCoins int64

	// Payout queue
	TransferMaxRetries int
	TransferRetryDelay time.Duration
}

// Load reads configuration from the environment (.env is loaded if present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		logger.Fatal("STRIPE_SECRET_KEY is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	feePercent := 5.0
	if v := os.Getenv("PLATFORM_FEE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			feePercent = f
		}
	}

	premiumFeePercent := 2.5
	if v := os.Getenv("PREMIUM_FEE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			premiumFeePercent = f
		}
	}

	signupBonus := int64(500)
	if v := os.Getenv("SIGNUP_BONUS_COINS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			signupBonus = n
		}
	}

	referralBonus := int64(250)
	if v := os.Getenv("REFERRAL_BONUS_COINS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			referralBonus = n
		}
	}

	maxRetries := 3
	if v := os.Getenv("TRANSFER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxRetries = n
		}
	}

	// Flat delay between payout attempts, not exponential.
	retryDelay := 5000 * time.Millisecond
	if v := os.Getenv("TRANSFER_RETRY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retryDelay = time.Duration(n) * time.Millisecond
		}
	}

	return &Config{
		AppPort:            port,
		DatabaseURL:        dbURL,
		JWTSecret:          jwtSecret,
		StripeSecretKey:    stripeKey,
		BaseURL:            baseURL,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		PlatformFeePercent: feePercent,
		PremiumFeePercent:  premiumFeePercent,
		SignupBonusCoins:   signupBonus,
		ReferralBonusCoins: referralBonus,
		TransferMaxRetries: maxRetries,
		TransferRetryDelay: retryDelay,
	}
}
