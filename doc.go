// Package paymentsheet implements the client-side core of a prebuilt payment
// form: per-field validation state machines, as-you-type formatters, a form
// aggregator with focus auto-advance, a concurrent session loader, and the
// confirmation controller that turns a chosen payment option into a terminal
// result.
//
// # Sheet lifecycle
//
// Construct a sheet with [New], passing the intent client secret, an
// [IntentClient], and a [Confirmer]. Options such as
// [WithBillingAddressCollection], [WithCustomer], and [WithWallet] shape what
// the form collects and which payment options are offered. [PaymentSheet.Load]
// fetches the intent and the customer's saved methods concurrently;
// [PaymentSheet.Present] hands back the [Form]; [PaymentSheet.Submit] runs the
// confirmation and reports a [Result] only when the flow has ended.
//
// # Form and fields
//
// Each [Field] owns a formatter and a validation routine and publishes
// transitions between [ValidationState] values to observers. The [Form] wires
// fields together: the detected card brand drives the security code rules,
// the billing country drives which address fields are shown, and completed
// fields advance focus to the next one.
//
// # Custom flows
//
// Integrations that separate option selection from confirmation can use
// [NewFlowController] with an [OptionChooser] to present options first and
// confirm later. [StripeClient] is a ready-made [IntentClient] and [Confirmer]
// backed by the Stripe API.
package paymentsheet
