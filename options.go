package paymentsheet

import (
	"io"
	"log/slog"
	"time"

	"github.com/sumup/paymentsheet/card"
)

type config struct {
	billingLevel     BillingAddressCollectionLevel
	merchantName     string
	customerID       string
	ephemeralKey     string
	wallet           WalletClient
	walletMerchantID string
	walletCountry    string
	ranges           card.RangeService
	logger           *slog.Logger
	minFlightTime    time.Duration
	settleDelay      time.Duration
	clock            func() time.Time
	sleep            func(time.Duration)
}

func defaultConfig() config {
	return config{
		billingLevel:  BillingAddressCollectionAutomatic,
		ranges:        card.StaticRanges{},
		logger:        discardLogger(),
		minFlightTime: time.Second,
		settleDelay:   1500 * time.Millisecond,
		clock:         time.Now,
		sleep:         time.Sleep,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1 << 30)}))
}

// Option customizes the sheet behavior.
type Option func(*config)

// WithBillingAddressCollection sets how much billing detail the form
// collects.
func WithBillingAddressCollection(level BillingAddressCollectionLevel) Option {
	return func(cfg *config) {
		cfg.billingLevel = level
	}
}

// WithMerchantDisplayName sets the merchant name shown on the sheet and the
// wallet payment summary.
func WithMerchantDisplayName(name string) Option {
	return func(cfg *config) {
		cfg.merchantName = name
	}
}

// WithCustomer attaches the customer identity used to list saved payment
// methods. Both values must be present for the saved-methods fetch to run.
func WithCustomer(customerID, ephemeralKey string) Option {
	return func(cfg *config) {
		cfg.customerID = customerID
		cfg.ephemeralKey = ephemeralKey
	}
}

// WithWallet enables the platform-pay option. The merchant identity is
// required by the wallet sheet.
func WithWallet(client WalletClient, merchantID, countryCode string) Option {
	if merchantID == "" {
		panic("paymentsheet: wallet merchant id is required")
	}
	return func(cfg *config) {
		cfg.wallet = client
		cfg.walletMerchantID = merchantID
		cfg.walletCountry = countryCode
	}
}

// WithRangeService replaces the static BIN-range table with a metadata
// service such as [card.RemoteRanges].
func WithRangeService(ranges card.RangeService) Option {
	return func(cfg *config) {
		cfg.ranges = ranges
	}
}

// WithLogger attaches a structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// withClock provides deterministic time in tests.
func withClock(fn func() time.Time) Option {
	return func(cfg *config) {
		cfg.clock = fn
	}
}

// withSleep replaces the flight-time delays in tests.
func withSleep(fn func(time.Duration)) Option {
	return func(cfg *config) {
		cfg.sleep = fn
	}
}

// withTimings overrides the minimum flight time and success settle delay in
// tests.
func withTimings(minFlight, settle time.Duration) Option {
	return func(cfg *config) {
		cfg.minFlightTime = minFlight
		cfg.settleDelay = settle
	}
}
