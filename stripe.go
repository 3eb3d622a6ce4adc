package paymentsheet

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeClient implements [IntentClient] and [Confirmer] against the Stripe
// API. Intent operations authenticate with the integrator's key; the
// saved-methods listing authenticates with the customer's ephemeral key,
// matching how mobile sheets scope customer reads.
type StripeClient struct {
	api *client.API
}

// NewStripeClient builds a Stripe-backed payments client.
func NewStripeClient(apiKey string) *StripeClient {
	if apiKey == "" {
		panic("paymentsheet: stripe api key is required")
	}
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeClient{api: api}
}

// intentIDFromClientSecret recovers the intent id, the part of the secret
// before "_secret_".
func intentIDFromClientSecret(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", errors.New("paymentsheet: malformed intent client secret")
	}
	return id, nil
}

// RetrieveIntent implements [IntentClient].
func (c *StripeClient) RetrieveIntent(ctx context.Context, clientSecret string) (*PaymentIntent, error) {
	id, err := intentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		ClientSecret: stripe.String(clientSecret),
	}
	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return intentFromStripe(pi), nil
}

// ListSavedMethods implements [IntentClient]. The listing runs under the
// customer's ephemeral key.
func (c *StripeClient) ListSavedMethods(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error) {
	scoped := &client.API{}
	scoped.Init(ephemeralKey, nil)

	params := &stripe.PaymentMethodListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Customer:   stripe.String(customerID),
		Type:       stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	var methods []SavedMethod
	iter := scoped.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, savedMethodFromStripe(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStripeError(err)
	}
	return methods, nil
}

// Confirm implements [Confirmer]. New methods are created first, then the
// intent is confirmed referencing them; saved methods confirm directly. The
// request's canonical hash rides along as the idempotency key.
func (c *StripeClient) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmOutcome, error) {
	id, err := intentIDFromClientSecret(req.ClientSecret)
	if err != nil {
		return nil, err
	}
	key, err := IdempotencyKey(req)
	if err != nil {
		return nil, err
	}

	methodID := req.SavedMethodID
	if req.NewMethod != nil {
		method, err := c.createPaymentMethod(ctx, req.NewMethod)
		if err != nil {
			return &ConfirmOutcome{Status: ConfirmFailed, Err: wrapStripeError(err)}, nil
		}
		methodID = method.ID
	}

	pi, err := c.api.PaymentIntents.Confirm(id, confirmParams(ctx, methodID, key, req.SetupFutureUse))
	if err != nil {
		return &ConfirmOutcome{Status: ConfirmFailed, Err: wrapStripeError(err)}, nil
	}
	return outcomeFromIntent(pi), nil
}

// confirmParams addresses the intent by ID only; the client secret never
// appears on the wire beyond its contribution to the idempotency key.
func confirmParams(ctx context.Context, methodID, key string, setupFutureUse bool) *stripe.PaymentIntentConfirmParams {
	params := &stripe.PaymentIntentConfirmParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(key),
		},
		PaymentMethod: stripe.String(methodID),
	}
	if setupFutureUse {
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}
	return params
}

func (c *StripeClient) createPaymentMethod(ctx context.Context, method *NewMethodParams) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(method.Number),
			ExpMonth: stripe.Int64(method.ExpMonth),
			ExpYear:  stripe.Int64(method.ExpYear),
			CVC:      stripe.String(method.CVC),
		},
	}
	if billing := method.Billing; billing != nil {
		params.BillingDetails = &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(billing.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Line1),
				Line2:      stripe.String(billing.Line2),
				City:       stripe.String(billing.City),
				State:      stripe.String(billing.State),
				PostalCode: stripe.String(billing.PostalCode),
				Country:    stripe.String(billing.Country),
			},
		}
	}
	return c.api.PaymentMethods.New(params)
}

func intentFromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	types := make([]string, 0, len(pi.PaymentMethodTypes))
	types = append(types, pi.PaymentMethodTypes...)
	return &PaymentIntent{
		ID:                 pi.ID,
		ClientSecret:       pi.ClientSecret,
		Amount:             pi.Amount,
		Currency:           string(pi.Currency),
		Status:             IntentStatus(pi.Status),
		PaymentMethodTypes: types,
	}
}

func savedMethodFromStripe(pm *stripe.PaymentMethod) SavedMethod {
	method := SavedMethod{
		ID:   pm.ID,
		Type: SavedMethodType(pm.Type),
	}
	if pm.Card != nil {
		_ = method.Details.FromCardDetails(CardDetails{
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: pm.Card.ExpMonth,
			ExpYear:  pm.Card.ExpYear,
		})
	}
	if pm.USBankAccount != nil {
		_ = method.Details.FromBankDetails(BankDetails{
			BankName: pm.USBankAccount.BankName,
			Last4:    pm.USBankAccount.Last4,
		})
	}
	return method
}

func outcomeFromIntent(pi *stripe.PaymentIntent) *ConfirmOutcome {
	intent := intentFromStripe(pi)
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return &ConfirmOutcome{Status: ConfirmSucceeded, Intent: intent}
	case stripe.PaymentIntentStatusCanceled:
		return &ConfirmOutcome{Status: ConfirmCanceled, Intent: intent}
	default:
		return &ConfirmOutcome{
			Status: ConfirmFailed,
			Intent: intent,
			Err:    NewAPIError("The payment could not be completed."),
		}
	}
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return NewAPIError(stripeErr.Msg)
	}
	return err
}
