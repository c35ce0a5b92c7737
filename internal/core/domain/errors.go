package domain

import (
	"errors"
	"fmt"
)

// LinkStep identifies which stage of the account-linking pipeline failed.
// Every remote-call failure in the orchestrator is classified with its
// own step so callers can branch on failure kind instead of log lines.
type LinkStep string

const (
	StepExchange       LinkStep = "aggregator_exchange"
	StepAccounts       LinkStep = "account_selection"
	StepProcessorToken LinkStep = "processor_token"
	StepFundingSource  LinkStep = "funding_source"
	StepPersist        LinkStep = "persistence"
)

// LinkError is the typed failure returned by the linking orchestrator.
// When the failure happened after the funding source was registered,
// FundingSourceURL and ItemID carry enough to reconcile: a retry can
// skip straight to persistence instead of re-registering.
type LinkError struct {
	Step LinkStep
	Err  error

	FundingSourceURL string
	ItemID           string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("bank linking failed at %s: %v", e.Step, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// NeedsReconciliation reports whether an external side effect (a
// registered funding source) exists without a matching local record.
func (e *LinkError) NeedsReconciliation() bool {
	return e.FundingSourceURL != ""
}

var (
	// ErrDuplicateEmail is returned by sign-up when the identity
	// provider already has an account for the email.
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrInvalidCredentials is returned by sign-in on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoSession is returned when a session token is missing, expired
	// or revoked.
	ErrNoSession = errors.New("no active session")

	// ErrAccountSelectionAmbiguous is returned when the aggregator reports
	// zero or more than one account for a freshly linked item. The flow
	// rejects rather than guessing which account the user meant.
	ErrAccountSelectionAmbiguous = errors.New("linked item does not resolve to exactly one account")

	// ErrDuplicateFundingSource is returned by the payment rail when a
	// funding source with the same bank already exists for the customer.
	ErrDuplicateFundingSource = errors.New("funding source already registered for customer")

	// ErrBankExists is returned on an insert that collides with the
	// (userID, accountID) uniqueness constraint.
	ErrBankExists = errors.New("bank account already linked for user")

	// ErrDataIntegrity marks a lookup that found multiple rows where the
	// schema promises at most one.
	ErrDataIntegrity = errors.New("data integrity anomaly: multiple records where one expected")
)
