package paymentsheet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoadJoinsBothFetches(t *testing.T) {
	t.Parallel()

	saved := []SavedMethod{{ID: "pm_1", Type: SavedMethodTypeCard}}
	client := &stubIntentClient{
		retrieve: func(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
			if clientSecret != "pi_123_secret_abc" {
				t.Errorf("unexpected client secret %q", clientSecret)
			}
			return testIntent(), nil
		},
		list: func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
			if customerID != "cus_1" || ephemeralKey != "ek_1" {
				t.Errorf("unexpected customer identity %q %q", customerID, ephemeralKey)
			}
			return saved, nil
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{}, WithCustomer("cus_1", "ek_1"))
	result, err := sheet.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Intent.ID != "pi_123" {
		t.Fatalf("intent id = %q", result.Intent.ID)
	}
	if len(result.SavedMethods) != 1 || result.SavedMethods[0].ID != "pm_1" {
		t.Fatalf("saved methods = %v", result.SavedMethods)
	}
	if sheet.Intent() == nil || len(sheet.SavedMethods()) != 1 {
		t.Fatalf("load result should be stored on the sheet")
	}
}

func TestLoadSkipsMethodsWithoutCustomer(t *testing.T) {
	t.Parallel()

	client := &stubIntentClient{
		list: func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
			t.Error("saved methods should not be fetched without a customer")
			return nil, nil
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{})
	result, err := sheet.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(result.SavedMethods) != 0 {
		t.Fatalf("saved methods = %v, want none", result.SavedMethods)
	}
}

// When both fetches fail the intent error wins, regardless of which fetch
// failed first.
func TestLoadIntentErrorTakesPriority(t *testing.T) {
	t.Parallel()

	intentErr := errors.New("intent fetch failed")
	methodsErr := errors.New("methods fetch failed")
	client := &stubIntentClient{
		retrieve: func(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
			// Losing the race must not change which error is reported.
			time.Sleep(10 * time.Millisecond)
			return nil, intentErr
		},
		list: func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
			return nil, methodsErr
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{}, WithCustomer("cus_1", "ek_1"))
	if _, err := sheet.Load(context.Background()); !errors.Is(err, intentErr) {
		t.Fatalf("expected the intent error, got %v", err)
	}
	if sheet.Intent() != nil {
		t.Fatalf("a failed load must not store a partial result")
	}
}

func TestLoadMethodsErrorFailsLoad(t *testing.T) {
	t.Parallel()

	methodsErr := errors.New("methods fetch failed")
	client := &stubIntentClient{
		list: func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
			return nil, methodsErr
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{}, WithCustomer("cus_1", "ek_1"))
	if _, err := sheet.Load(context.Background()); !errors.Is(err, methodsErr) {
		t.Fatalf("expected the methods error, got %v", err)
	}
}

func TestLoadFiltersUnsupportedMethods(t *testing.T) {
	t.Parallel()

	client := &stubIntentClient{
		retrieve: func(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
			intent := testIntent()
			intent.PaymentMethodTypes = []string{"card", "us_bank_account"}
			return intent, nil
		},
		list: func(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
			return []SavedMethod{
				{ID: "pm_card", Type: SavedMethodTypeCard},
				{ID: "pm_bank", Type: SavedMethodTypeUSBankAccount},
				{ID: "pm_sepa", Type: SavedMethodTypeSEPADebit},
			}, nil
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{}, WithCustomer("cus_1", "ek_1"))
	result, err := sheet.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var kept []string
	for _, m := range result.SavedMethods {
		kept = append(kept, m.ID)
	}
	want := []string{"pm_card", "pm_bank"}
	if len(kept) != len(want) {
		t.Fatalf("kept = %v, want %v", kept, want)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("kept = %v, want %v", kept, want)
		}
	}
}

// Load can be called again after a failure; the sheet is usable once a
// retry succeeds.
func TestLoadRetryAfterFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &stubIntentClient{
		retrieve: func(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient failure")
			}
			return testIntent(), nil
		},
	}

	sheet := New("pi_123_secret_abc", client, &stubConfirmer{})
	if _, err := sheet.Load(context.Background()); err == nil {
		t.Fatalf("expected first load to fail")
	}
	if _, err := sheet.Load(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sheet.Intent() == nil {
		t.Fatalf("retry should store the intent")
	}
}
