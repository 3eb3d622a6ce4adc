package paymentsheet

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubIntentClient lets each test configure the payments-API reads it needs.
type stubIntentClient struct {
	retrieve func(ctx context.Context, clientSecret string) (*PaymentIntent, error)
	list     func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error)
}

func (s *stubIntentClient) RetrieveIntent(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
	if s.retrieve == nil {
		return testIntent(), nil
	}
	return s.retrieve(ctx, clientSecret)
}

func (s *stubIntentClient) ListSavedMethods(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx, customerID, ephemeralKey)
}

type stubConfirmer struct {
	confirm func(ctx context.Context, req ConfirmRequest) (*ConfirmOutcome, error)
}

func (s *stubConfirmer) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmOutcome, error) {
	if s.confirm == nil {
		return &ConfirmOutcome{Status: ConfirmSucceeded}, nil
	}
	return s.confirm(ctx, req)
}

type stubWallet struct {
	supported bool
	present   func(ctx context.Context) (*ConfirmOutcome, error)
}

func (s *stubWallet) Supported() bool { return s.supported }

func (s *stubWallet) Present(ctx context.Context) (*ConfirmOutcome, error) {
	if s.present == nil {
		return &ConfirmOutcome{Status: ConfirmCanceled}, nil
	}
	return s.present(ctx)
}

// stubPresenter records the calls the sheet makes against the surface.
type stubPresenter struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (p *stubPresenter) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *stubPresenter) ShowError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "show_error")
	p.errs = append(p.errs, err)
}

func (p *stubPresenter) Hide() { p.record("hide") }
func (p *stubPresenter) Show() { p.record("show") }

func (p *stubPresenter) SetDismissable(dismissable bool) {
	if dismissable {
		p.record("dismissable")
		return
	}
	p.record("not_dismissable")
}

func (p *stubPresenter) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func testIntent() *PaymentIntent {
	return &PaymentIntent{
		ID:                 "pi_123",
		ClientSecret:       "pi_123_secret_abc",
		Amount:             1099,
		Currency:           "usd",
		Status:             IntentStatusRequiresPaymentMethod,
		PaymentMethodTypes: []string{"card"},
	}
}

func newLoadedSheet(t *testing.T, opts ...Option) *PaymentSheet {
	t.Helper()
	opts = append([]Option{withTimings(0, 0)}, opts...)
	sheet := New("pi_123_secret_abc", &stubIntentClient{}, &stubConfirmer{}, opts...)
	if _, err := sheet.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return sheet
}

func errorCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var sheetErr *Error
	if !errors.As(err, &sheetErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return sheetErr.Code
}

func TestNewPanicsOnMissingArguments(t *testing.T) {
	t.Parallel()

	tests := map[string]func(){
		"missing client secret": func() { New("", &stubIntentClient{}, &stubConfirmer{}) },
		"missing intent client": func() { New("pi_123_secret_abc", nil, &stubConfirmer{}) },
		"missing confirmer":     func() { New("pi_123_secret_abc", &stubIntentClient{}, nil) },
	}

	for name, construct := range tests {
		construct := construct
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			construct()
		})
	}
}

func TestPresentBeforeLoad(t *testing.T) {
	t.Parallel()

	sheet := New("pi_123_secret_abc", &stubIntentClient{}, &stubConfirmer{})
	if _, err := sheet.Present(&stubPresenter{}); errorCode(t, err) != CodeNotLoaded {
		t.Fatalf("expected not_loaded, got %v", err)
	}
}

func TestPresentTwice(t *testing.T) {
	t.Parallel()

	sheet := newLoadedSheet(t)
	if _, err := sheet.Present(&stubPresenter{}); err != nil {
		t.Fatalf("first present: %v", err)
	}
	if _, err := sheet.Present(&stubPresenter{}); errorCode(t, err) != CodeAlreadyPresenting {
		t.Fatalf("expected already_presenting, got %v", err)
	}
}

func TestPresentReturnsSameForm(t *testing.T) {
	t.Parallel()

	sheet := newLoadedSheet(t)
	frm, err := sheet.Present(&stubPresenter{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	if frm == nil {
		t.Fatalf("expected a form")
	}
	if sheet.Form() != frm {
		t.Fatalf("Form should return the presented form")
	}

	// Dismiss and re-present: the form and its field states survive.
	if _, err := sheet.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	again, err := sheet.Present(&stubPresenter{})
	if err != nil {
		t.Fatalf("re-present: %v", err)
	}
	if again != frm {
		t.Fatalf("re-present should return the same form")
	}
}

func TestDismissCarriesLastInlineError(t *testing.T) {
	t.Parallel()

	declined := NewAPIError("Your card was declined.")
	confirmer := &stubConfirmer{
		confirm: func(ctx context.Context, req ConfirmRequest) (*ConfirmOutcome, error) {
			return &ConfirmOutcome{Status: ConfirmFailed, Err: declined}, nil
		},
	}
	sheet := New("pi_123_secret_abc", &stubIntentClient{}, confirmer, withTimings(0, 0))
	if _, err := sheet.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := sheet.Submit(context.Background(), SavedMethodOption("pm_1"))
	if err != nil || result != nil {
		t.Fatalf("inline failure should not be terminal, got result=%v err=%v", result, err)
	}

	result, err = sheet.Dismiss()
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if result.Status != ResultCanceled {
		t.Fatalf("expected canceled result, got %s", result.Status)
	}
	if !errors.Is(result.Err, declined) {
		t.Fatalf("expected the last inline error, got %v", result.Err)
	}
}

func TestWalletEnabled(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts []Option
		want bool
	}{
		"no wallet configured": {
			opts: nil,
			want: false,
		},
		"wallet configured and supported": {
			opts: []Option{WithWallet(&stubWallet{supported: true}, "merchant.example", "US")},
			want: true,
		},
		"wallet configured but unsupported": {
			opts: []Option{WithWallet(&stubWallet{supported: false}, "merchant.example", "US")},
			want: false,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sheet := New("pi_123_secret_abc", &stubIntentClient{}, &stubConfirmer{}, tt.opts...)
			if got := sheet.WalletEnabled(); got != tt.want {
				t.Fatalf("WalletEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
