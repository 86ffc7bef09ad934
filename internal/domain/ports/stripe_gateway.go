package ports

import "context"

// ConnectAccount is the gateway view of a payout account
type ConnectAccount struct {
	ID             string
	PayoutsEnabled bool
}

// AccountLink is a one-time onboarding URL for a connect account
type AccountLink struct {
	URL string
}

// Transfer is the gateway reference for an executed funds transfer
type Transfer struct {
	ID string
}

// StripeGateway abstracts the external payment processor. All calls are
// fallible; callers must wrap errors before surfacing them so raw gateway
// failures never reach API clients.
type StripeGateway interface {
	// CreateExpressAccount provisions a new Express account for onboarding
	CreateExpressAccount(ctx context.Context) (*ConnectAccount, error)

	// RetrieveAccount fetches the current payout capability of an account
	RetrieveAccount(ctx context.Context, accountID string) (*ConnectAccount, error)

	// CreateOnboardingLink requests a hosted onboarding link for the account
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)

	// CreateTransfer moves amount (minor units) to the destination account.
	// idempotencyKey deduplicates retries of the same logical transfer.
	CreateTransfer(ctx context.Context, amount int64, currency, destinationAccountID, idempotencyKey string) (*Transfer, error)
}
