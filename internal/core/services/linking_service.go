package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// railProcessor names the payment rail in processor-token requests.
const railProcessor = "dwolla"

// LinkingService sequences the account-linking pipeline: public-token
// exchange, account selection, processor-token creation, funding-source
// registration and local persistence. Steps are strictly ordered; each
// step's output feeds the next, and each failure carries its own
// classification.
type LinkingService struct {
	log        zerolog.Logger
	aggregator ports.AggregatorGateway
	rail       ports.PaymentRailGateway
	banks      ports.BankRepository
	ids        ports.IDCodec
	cache      ports.BankListCache
	bus        ports.EventBus
}

// NewLinkingService creates the orchestrator.
func NewLinkingService(
	aggregator ports.AggregatorGateway,
	rail ports.PaymentRailGateway,
	banks ports.BankRepository,
	ids ports.IDCodec,
	cache ports.BankListCache,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) *LinkingService {
	return &LinkingService{
		log:        baseLogger.With().Str("component", "linking_service").Logger(),
		aggregator: aggregator,
		rail:       rail,
		banks:      banks,
		ids:        ids,
		cache:      cache,
		bus:        bus,
	}
}

// CreateLinkToken issues the token the client-side linking UI opens with.
func (s *LinkingService) CreateLinkToken(ctx context.Context, user *domain.UserProfile) (string, error) {
	token, err := s.aggregator.CreateLinkToken(ctx, ports.LinkTokenParams{
		ClientUserID: user.UserID,
		ClientName:   user.FullName(),
		Products:     []string{"auth"},
		Language:     "en",
		CountryCodes: []string{"US"},
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.UserID).Msg("Link token creation failed")
		return "", fmt.Errorf("could not create link token: %w", err)
	}
	return token, nil
}

// LinkBankAccount takes the public token from a completed client-side
// linking flow and produces a durable LinkedBankAccount, atomically from
// the caller's perspective. Failures are *domain.LinkError values
// classified by step; failures after funding-source registration carry
// the funding-source URL for reconciliation.
func (s *LinkingService) LinkBankAccount(ctx context.Context, publicToken string, user *domain.UserProfile) (*domain.LinkedBankAccount, error) {
	log := s.log.With().Str("user_id", user.UserID).Logger()

	// Step 1: durable access token. No side effects yet; safe to retry
	// with a fresh public token.
	exchange, err := s.aggregator.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		log.Error().Err(err).Str("step", string(domain.StepExchange)).Msg("Public token exchange failed")
		return nil, &domain.LinkError{Step: domain.StepExchange, Err: err}
	}

	// Step 2: resolve the one account behind the item. Zero or multiple
	// accounts is rejected outright rather than guessing.
	accounts, err := s.aggregator.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		log.Error().Err(err).Str("step", string(domain.StepAccounts)).Msg("Account fetch failed")
		return nil, &domain.LinkError{Step: domain.StepAccounts, Err: err}
	}
	if len(accounts) != 1 {
		log.Warn().Int("count", len(accounts)).Str("item_id", exchange.ItemID).
			Msg("Rejecting item that does not resolve to exactly one account")
		return nil, &domain.LinkError{Step: domain.StepAccounts, Err: domain.ErrAccountSelectionAmbiguous}
	}
	account := accounts[0]

	// Step 3: bind the access-token/account pair to the rail. Still no
	// durable state anywhere.
	processorToken, err := s.aggregator.CreateProcessorToken(ctx, exchange.AccessToken, account.ID, railProcessor)
	if err != nil {
		log.Error().Err(err).Str("step", string(domain.StepProcessorToken)).Msg("Processor token creation failed")
		return nil, &domain.LinkError{Step: domain.StepProcessorToken, Err: err}
	}

	// Step 4: the first side-effecting step. Registration is idempotent
	// against retries and concurrent requests for the same account.
	fundingSourceURL, err := s.registerFundingSource(ctx, user.DwollaCustomerID, processorToken, account.Name)
	if err != nil {
		log.Error().Err(err).Str("step", string(domain.StepFundingSource)).Msg("Funding source registration failed")
		return nil, &domain.LinkError{Step: domain.StepFundingSource, Err: err}
	}

	// Step 5: persist. From here on a failure leaves a funding source
	// without a record, so the error carries what reconciliation needs.
	sharableID, err := s.ids.EncryptID(account.ID)
	if err != nil {
		log.Error().Err(err).Str("step", string(domain.StepPersist)).Msg("Sharable id derivation failed")
		return nil, &domain.LinkError{
			Step: domain.StepPersist, Err: err,
			FundingSourceURL: fundingSourceURL, ItemID: exchange.ItemID,
		}
	}

	bank := &domain.LinkedBankAccount{
		ID:               uuid.New(),
		UserID:           user.UserID,
		AccessToken:      exchange.AccessToken,
		FundingSourceURL: fundingSourceURL,
		BankID:           exchange.ItemID,
		AccountID:        account.ID,
		SharableID:       sharableID,
	}

	if err := s.banks.Create(ctx, bank); err != nil {
		if errors.Is(err, domain.ErrBankExists) {
			// A concurrent request for the same (user, account) won the
			// race; its record is the truth.
			existing, lookupErr := s.banks.GetByUserAndAccountID(ctx, user.UserID, account.ID)
			if lookupErr == nil && existing != nil {
				log.Info().Str("account_id", account.ID).Msg("Account was linked concurrently, reusing record")
				s.publishLinked(ctx, user.UserID, account.ID)
				return existing, nil
			}
		}
		log.Error().Err(err).
			Str("step", string(domain.StepPersist)).
			Str("funding_source_url", fundingSourceURL).
			Str("item_id", exchange.ItemID).
			Msg("Persistence failed after funding source registration")
		return nil, &domain.LinkError{
			Step: domain.StepPersist, Err: err,
			FundingSourceURL: fundingSourceURL, ItemID: exchange.ItemID,
		}
	}

	// Step 6: invalidate cached views of the user's account list.
	s.publishLinked(ctx, user.UserID, account.ID)

	log.Info().Str("account_id", account.ID).Str("item_id", exchange.ItemID).Msg("Bank account linked")
	return bank, nil
}

// registerFundingSource registers a funding source at most once per
// (customer, bank name): an existing live source with the same name is
// reused, and a duplicate-resource response from the rail resolves to
// the existing source.
func (s *LinkingService) registerFundingSource(ctx context.Context, customerID, processorToken, name string) (string, error) {
	existing, err := s.rail.ListFundingSources(ctx, customerID)
	if err != nil {
		// Listing is an optimization; creation below still dedups via the
		// rail's duplicate-resource response.
		s.log.Warn().Err(err).Str("customer_id", customerID).Msg("Could not list funding sources before create")
	} else {
		for _, fs := range existing {
			if fs.Name == name && !fs.Removed {
				s.log.Info().Str("customer_id", customerID).Str("funding_source_url", fs.URL).
					Msg("Reusing existing funding source")
				return fs.URL, nil
			}
		}
	}

	url, err := s.rail.CreateFundingSource(ctx, customerID, processorToken, name)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateFundingSource) {
			// Created concurrently between our list and create.
			if sources, listErr := s.rail.ListFundingSources(ctx, customerID); listErr == nil {
				for _, fs := range sources {
					if fs.Name == name && !fs.Removed {
						return fs.URL, nil
					}
				}
			}
		}
		return "", err
	}
	return url, nil
}

// publishLinked invalidates the user's cached account list before the
// linking call returns, so a read arriving right after cannot be served
// the pre-link list, then notifies other observers over the bus.
func (s *LinkingService) publishLinked(ctx context.Context, userID, accountID string) {
	s.cache.Invalidate(userID)

	err := s.bus.Publish(ctx, ports.TopicBankLinked, ports.BankLinkedEvent{
		UserID:    userID,
		AccountID: accountID,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to publish linked event")
	}
}
