package paymentsheet

import (
	"context"
	"log/slog"
	"time"
)

// ConfirmStatus defines model for ConfirmOutcome.Status.
type ConfirmStatus string

// Defines values for ConfirmStatus.
const (
	ConfirmSucceeded ConfirmStatus = "succeeded"
	ConfirmCanceled  ConfirmStatus = "canceled"
	ConfirmFailed    ConfirmStatus = "failed"
)

// ConfirmOutcome is what a confirmation path reports back: a status, the
// updated intent when the server returned one, and the failure cause when
// there is one.
type ConfirmOutcome struct {
	Status ConfirmStatus
	Intent *PaymentIntent
	Err    error
}

// ConfirmRequest carries one submission to the confirmation path. Exactly
// one of SavedMethodID and NewMethod is set.
type ConfirmRequest struct {
	ClientSecret   string           `json:"client_secret"`
	SavedMethodID  string           `json:"saved_method_id,omitempty"`
	NewMethod      *NewMethodParams `json:"new_method,omitempty"`
	SetupFutureUse bool             `json:"setup_future_use,omitempty"`
}

// Confirmer submits a confirmation to the payments API.
type Confirmer interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmOutcome, error)
}

// WalletClient is the platform wallet collaborator. Present runs the wallet
// sheet and reports its outcome.
type WalletClient interface {
	Supported() bool
	Present(ctx context.Context) (*ConfirmOutcome, error)
}

// ResultStatus defines model for Result.Status.
type ResultStatus string

// Defines values for ResultStatus.
const (
	ResultCompleted ResultStatus = "completed"
	ResultCanceled  ResultStatus = "canceled"
	ResultFailed    ResultStatus = "failed"
)

// Result is the single terminal outcome of one presentation lifecycle.
type Result struct {
	Status ResultStatus
	Intent *PaymentIntent
	Err    error
}

// Submit confirms the given payment option. Exactly one submission may be
// in flight; the surface is not dismissable until it finishes. The returned
// result is nil when the outcome is not terminal: a canceled confirmation
// resumes the idle form silently, and a failure with a concrete cause is
// shown inline so the user can retry. Completion is never delivered before
// the minimum flight time, plus a short settle delay on success.
func (s *PaymentSheet) Submit(ctx context.Context, option *PaymentOption) (*Result, error) {
	if option == nil {
		return nil, NewInternalError(CodeNoPaymentOption, "Submit called without a payment option")
	}
	if err := s.validateOption(option); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, NewInternalError(CodeSubmissionInFlight, "Submit called while another submission is in flight")
	}
	if s.intent == nil {
		s.mu.Unlock()
		return nil, NewInternalError(CodeNotLoaded, "Submit called before Load completed")
	}
	s.submitting = true
	intent := s.intent
	presenter := s.presenter
	s.mu.Unlock()

	setDismissable(presenter, false)
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		setDismissable(presenter, true)
	}()

	s.log.Debug("submitting", slog.String("option", string(option.Kind)))
	start := s.cfg.clock()
	outcome, err := s.dispatchConfirm(ctx, intent, option, presenter)
	s.waitMinFlight(start)

	if err != nil {
		// Transport failure with a concrete cause: show inline, stay on
		// the form, let the user retry.
		s.recordLastError(err)
		showError(presenter, err)
		return nil, nil
	}
	if outcome == nil {
		outcome = &ConfirmOutcome{Status: ConfirmFailed}
	}

	switch outcome.Status {
	case ConfirmSucceeded:
		s.cfg.sleep(s.cfg.settleDelay)
		final := intent
		if outcome.Intent != nil {
			final = outcome.Intent
			s.replaceIntent(final)
		}
		s.log.Debug("submission succeeded", slog.String("intent", final.ID))
		return &Result{Status: ResultCompleted, Intent: final}, nil
	case ConfirmCanceled:
		// Not a terminal dismissal: the form resumes idle with its field
		// states intact.
		s.log.Debug("submission canceled")
		return nil, nil
	default:
		if outcome.Err != nil {
			s.recordLastError(outcome.Err)
			showError(presenter, outcome.Err)
			return nil, nil
		}
		synthesized := NewInternalError(CodePaymentFailed, "confirmation reported failure without an error object")
		final := intent
		if outcome.Intent != nil {
			final = outcome.Intent
		}
		return &Result{Status: ResultFailed, Intent: final, Err: synthesized}, nil
	}
}

func (s *PaymentSheet) validateOption(option *PaymentOption) error {
	switch option.Kind {
	case PaymentOptionSavedMethod:
		if option.SavedMethodID == "" {
			return NewInternalError(CodeNoPaymentOption, "saved method option without a method id")
		}
	case PaymentOptionNewMethod:
		if option.NewMethod == nil {
			return NewInternalError(CodeNoPaymentOption, "new method option without params")
		}
		if err := option.NewMethod.Validate(); err != nil {
			return NewInternalError(CodeNoPaymentOption, err.Error())
		}
		// Options built outside the form, by a flow controller for
		// example, still have to meet the configured collection level.
		if billing := option.NewMethod.Billing; billing != nil {
			if err := billing.Validate(s.cfg.billingLevel); err != nil {
				return NewInternalError(CodeNoPaymentOption, err.Error())
			}
		} else if s.cfg.billingLevel == BillingAddressCollectionRequired {
			return NewInternalError(CodeNoPaymentOption, "new method option without the required billing address")
		}
	case PaymentOptionPlatformPay:
		if !s.WalletEnabled() {
			return NewInternalError(CodeWalletUnavailable, "platform pay selected without a capable wallet client")
		}
	default:
		return NewInternalError(CodeNoPaymentOption, "unknown payment option kind")
	}
	return nil
}

func (s *PaymentSheet) dispatchConfirm(ctx context.Context, intent *PaymentIntent, option *PaymentOption, presenter Presenter) (*ConfirmOutcome, error) {
	if option.Kind == PaymentOptionPlatformPay {
		// The wallet sheet covers the form surface; hide it for the
		// duration and re-present it before reporting any outcome short of
		// success.
		hide(presenter)
		outcome, err := s.cfg.wallet.Present(ctx)
		if err != nil || outcome == nil || outcome.Status != ConfirmSucceeded {
			show(presenter)
		}
		return outcome, err
	}

	req := ConfirmRequest{
		ClientSecret:  intent.ClientSecret,
		SavedMethodID: option.SavedMethodID,
		NewMethod:     option.NewMethod,
	}
	if option.NewMethod != nil && option.NewMethod.SaveForFutureUse {
		req.SetupFutureUse = true
	}
	return s.confirmer.Confirm(ctx, req)
}

// waitMinFlight keeps the submitting state visible for the configured
// minimum duration by delaying delivery, not by blocking the confirmation.
func (s *PaymentSheet) waitMinFlight(start time.Time) {
	elapsed := s.cfg.clock().Sub(start)
	if remaining := s.cfg.minFlightTime - elapsed; remaining > 0 {
		s.cfg.sleep(remaining)
	}
}

func (s *PaymentSheet) recordLastError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

func (s *PaymentSheet) replaceIntent(intent *PaymentIntent) {
	s.mu.Lock()
	s.intent = intent
	s.mu.Unlock()
}

func setDismissable(p Presenter, dismissable bool) {
	if p != nil {
		p.SetDismissable(dismissable)
	}
}

func showError(p Presenter, err error) {
	if p != nil {
		p.ShowError(err)
	}
}

func hide(p Presenter) {
	if p != nil {
		p.Hide()
	}
}

func show(p Presenter) {
	if p != nil {
		p.Show()
	}
}
