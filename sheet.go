package paymentsheet

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Presenter is the contract the rendering surface satisfies. The sheet
// drives it; it never calls back into the sheet synchronously.
type Presenter interface {
	// ShowError surfaces a retryable confirmation error next to the form.
	ShowError(err error)
	// Hide removes the surface while the wallet sheet is on screen.
	Hide()
	// Show re-presents the surface after a wallet flow ends short of
	// success.
	Show()
	// SetDismissable toggles whether the user may close the surface. It is
	// false for the whole duration of a submission.
	SetDismissable(dismissable bool)
}

// PaymentSheet orchestrates one payment: load the intent and saved methods,
// present the form, confirm the chosen option, and deliver exactly one
// terminal [Result] per presentation lifecycle.
type PaymentSheet struct {
	clientSecret string
	client       IntentClient
	confirmer    Confirmer
	cfg          config
	session      uuid.UUID
	log          *slog.Logger

	mu           sync.Mutex
	submitting   bool
	intent       *PaymentIntent
	savedMethods []SavedMethod
	form         *Form
	presenter    Presenter
	lastError    error
}

// New builds a payment sheet for the given intent client secret.
func New(clientSecret string, client IntentClient, confirmer Confirmer, opts ...Option) *PaymentSheet {
	if clientSecret == "" {
		panic("paymentsheet: client secret is required")
	}
	if client == nil {
		panic("paymentsheet: intent client is required")
	}
	if confirmer == nil {
		panic("paymentsheet: confirmer is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	session := uuid.New()
	return &PaymentSheet{
		clientSecret: clientSecret,
		client:       client,
		confirmer:    confirmer,
		cfg:          cfg,
		session:      session,
		log:          cfg.logger.With(slog.String("session", session.String())),
	}
}

// MerchantDisplayName returns the configured merchant name.
func (s *PaymentSheet) MerchantDisplayName() string {
	return s.cfg.merchantName
}

// WalletEnabled reports whether the platform-pay option is available:
// a wallet client was configured with a merchant identity and the device
// supports it.
func (s *PaymentSheet) WalletEnabled() bool {
	return s.cfg.wallet != nil && s.cfg.walletMerchantID != "" && s.cfg.wallet.Supported()
}

// Intent returns the current intent snapshot, nil before a successful load.
func (s *PaymentSheet) Intent() *PaymentIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

// SavedMethods returns the filtered saved methods from the last load.
func (s *PaymentSheet) SavedMethods() []SavedMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SavedMethod(nil), s.savedMethods...)
}

// Present registers the rendering surface and returns the form it should
// render. Calling Present again while a presentation is active is an API
// misuse and yields an internal error.
func (s *PaymentSheet) Present(p Presenter) (*Form, error) {
	if p == nil {
		panic("paymentsheet: presenter is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intent == nil {
		return nil, NewInternalError(CodeNotLoaded, "Present called before Load completed")
	}
	if s.presenter != nil {
		return nil, NewInternalError(CodeAlreadyPresenting, "Present called while the sheet is already presenting")
	}
	s.presenter = p
	if s.form == nil {
		s.form = newForm(s.cfg.billingLevel, s.cfg.ranges, s.cfg.clock, s.log)
	}
	return s.form, nil
}

// Form returns the active form, nil before the first Present.
func (s *PaymentSheet) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Dismiss ends the presentation with the canceled terminal result, carrying
// the last inline confirmation error if one was shown. Dismissing while a
// submission is in flight is disallowed.
func (s *PaymentSheet) Dismiss() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return nil, NewInternalError(CodeNotDismissable, "the sheet is not dismissable while a submission is in flight")
	}
	s.presenter = nil
	return &Result{Status: ResultCanceled, Intent: s.intent, Err: s.lastError}, nil
}
