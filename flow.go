package paymentsheet

import (
	"context"
	"sync"
)

// OptionChooser is the selection surface the flow-controller mode drives:
// it presents the available choices and returns once the user finalizes
// one. Returning a nil option without error means the user backed out.
type OptionChooser interface {
	ChoosePaymentOption(ctx context.Context, current *PaymentOption, saved []SavedMethod, walletAvailable bool) (*PaymentOption, error)
}

// OptionChooserFunc lifts bare functions into [OptionChooser].
type OptionChooserFunc func(ctx context.Context, current *PaymentOption, saved []SavedMethod, walletAvailable bool) (*PaymentOption, error)

// ChoosePaymentOption invokes the wrapped function.
func (f OptionChooserFunc) ChoosePaymentOption(ctx context.Context, current *PaymentOption, saved []SavedMethod, walletAvailable bool) (*PaymentOption, error) {
	return f(ctx, current, saved, walletAvailable)
}

// FlowController decouples choosing a payment option from confirming it:
// the host presents selection at one point in its flow and submits later,
// against the same loaded sheet.
type FlowController struct {
	sheet *PaymentSheet

	mu         sync.Mutex
	presenting bool
	selected   *PaymentOption
}

// NewFlowController wraps a loaded sheet in flow-controller mode.
func NewFlowController(sheet *PaymentSheet) *FlowController {
	if sheet == nil {
		panic("paymentsheet: sheet is required")
	}
	return &FlowController{sheet: sheet}
}

// PresentPaymentOptions runs the selection surface and stores the
// finalized choice. No payment is submitted. Presenting while a
// presentation is already active is an API misuse.
func (fc *FlowController) PresentPaymentOptions(ctx context.Context, chooser OptionChooser) (*PaymentOption, error) {
	if chooser == nil {
		panic("paymentsheet: chooser is required")
	}
	fc.mu.Lock()
	if fc.presenting {
		fc.mu.Unlock()
		return nil, NewInternalError(CodeAlreadyPresenting, "PresentPaymentOptions called while already presenting")
	}
	fc.presenting = true
	current := fc.selected
	fc.mu.Unlock()
	defer func() {
		fc.mu.Lock()
		fc.presenting = false
		fc.mu.Unlock()
	}()

	option, err := chooser.ChoosePaymentOption(ctx, current, fc.sheet.SavedMethods(), fc.sheet.WalletEnabled())
	if err != nil {
		return nil, err
	}
	if option != nil {
		fc.mu.Lock()
		fc.selected = option
		fc.mu.Unlock()
	}
	return option, nil
}

// SelectedOption returns the currently finalized choice, nil before the
// first selection.
func (fc *FlowController) SelectedOption() *PaymentOption {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.selected
}

// ConfirmPayment submits the currently selected option and returns the
// terminal tri-state result the same way [PaymentSheet.Submit] does.
func (fc *FlowController) ConfirmPayment(ctx context.Context) (*Result, error) {
	fc.mu.Lock()
	selected := fc.selected
	fc.mu.Unlock()
	if selected == nil {
		return nil, NewInternalError(CodeNoPaymentOption, "ConfirmPayment called before a payment option was selected")
	}
	return fc.sheet.Submit(ctx, selected)
}
