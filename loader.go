package paymentsheet

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// IntentClient is the payments-API contract the sheet loads from. Both
// calls are asynchronous, single-shot, and callable any number of times.
type IntentClient interface {
	RetrieveIntent(ctx context.Context, clientSecret string) (*PaymentIntent, error)
	ListSavedMethods(ctx context.Context, customerID, ephemeralKey string) ([]SavedMethod, error)
}

// LoadResult is the merged terminal result of one load.
type LoadResult struct {
	Intent       *PaymentIntent
	SavedMethods []SavedMethod
}

// Load fetches the payment intent and, when a customer identity is
// configured, the customer's saved methods. The two fetches run
// concurrently and are joined into exactly one terminal result: callers
// never observe partial updates. The intent-fetch error takes priority when
// both fail.
func (s *PaymentSheet) Load(ctx context.Context) (*LoadResult, error) {
	var (
		g          errgroup.Group
		intent     *PaymentIntent
		intentErr  error
		methods    []SavedMethod
		methodsErr error
	)

	g.Go(func() error {
		intent, intentErr = s.client.RetrieveIntent(ctx, s.clientSecret)
		return intentErr
	})
	g.Go(func() error {
		if s.cfg.customerID == "" || s.cfg.ephemeralKey == "" {
			return nil
		}
		methods, methodsErr = s.client.ListSavedMethods(ctx, s.cfg.customerID, s.cfg.ephemeralKey)
		return methodsErr
	})
	_ = g.Wait()

	if intentErr != nil {
		s.log.Debug("intent fetch failed", slog.String("error", intentErr.Error()))
		return nil, intentErr
	}
	if methodsErr != nil {
		s.log.Debug("saved methods fetch failed", slog.String("error", methodsErr.Error()))
		return nil, methodsErr
	}

	filtered := filterSavedMethods(intent.PaymentMethodTypes, methods)
	s.mu.Lock()
	s.intent = intent
	s.savedMethods = filtered
	s.mu.Unlock()
	s.log.Debug("load complete",
		slog.String("intent", intent.ID),
		slog.Int("saved_methods", len(filtered)),
	)
	return &LoadResult{Intent: intent, SavedMethods: filtered}, nil
}

// filterSavedMethods keeps a method only if its type is in the intent's
// supported set, or it is a card: cards are always eligible as a fallback.
func filterSavedMethods(supported []string, methods []SavedMethod) []SavedMethod {
	supportedSet := make(map[string]bool, len(supported))
	for _, t := range supported {
		supportedSet[t] = true
	}
	var kept []SavedMethod
	for _, m := range methods {
		if m.Type == SavedMethodTypeCard || supportedSet[string(m.Type)] {
			kept = append(kept, m)
		}
	}
	return kept
}
