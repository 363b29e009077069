package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RateTriple is a value copy of one currency's rates at an instant. Consumers
// get the copy, never the live Currency row — an administrator can change
// rates at any time and recorded conversions must not move with them.
type RateTriple struct {
	CurrencyID    uuid.UUID
	CurrencyCode  string
	RateToUSD     decimal.Decimal
	BuyRateToUSD  decimal.Decimal
	SellRateToUSD decimal.Decimal
}

// RatesFeed is the external reference-rate provider consumed by SyncRates.
// Implemented by infra.RatesFeedClient behind the circuit breaker.
type RatesFeed interface {
	FetchReferenceRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// RegistryService is the currency registry: currency CRUD, rate reads with
// snapshot semantics, and the optional background sync of reference rates.
type RegistryService interface {
	Create(ctx context.Context, req dto.CreateCurrencyRequest) (*dto.CurrencyResponse, error)
	List(ctx context.Context) ([]dto.CurrencyResponse, error)
	UpdateRates(ctx context.Context, id uuid.UUID, req dto.UpdateRatesRequest) (*dto.CurrencyResponse, error)

	// GetRate returns the currency's rate triple by value.
	GetRate(ctx context.Context, currencyID uuid.UUID) (RateTriple, error)
	// SnapshotAll copies every currency's triple, for session open/close
	// snapshots.
	SnapshotAll(ctx context.Context) ([]RateTriple, error)
	// SyncRates refreshes reference rates from the external feed. Buy/sell
	// spreads stay operator-controlled; only rate_to_usd is touched.
	SyncRates(ctx context.Context) error
}

type registryService struct {
	repo repository.CurrencyRepository
	feed RatesFeed
}

func NewRegistryService(repo repository.CurrencyRepository, feed RatesFeed) RegistryService {
	return &registryService{repo: repo, feed: feed}
}

func (s *registryService) Create(ctx context.Context, req dto.CreateCurrencyRequest) (*dto.CurrencyResponse, error) {
	if existing, err := s.repo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("currency %s already exists", req.Code)
	}
	c := &model.Currency{
		Code:          req.Code,
		Name:          req.Name,
		RateToUSD:     req.RateToUSD,
		BuyRateToUSD:  req.BuyRateToUSD,
		SellRateToUSD: req.SellRateToUSD,
		IsCrypto:      req.IsCrypto,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return currencyToResponse(c), nil
}

func (s *registryService) List(ctx context.Context) ([]dto.CurrencyResponse, error) {
	currencies, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CurrencyResponse, 0, len(currencies))
	for i := range currencies {
		out = append(out, *currencyToResponse(&currencies[i]))
	}
	return out, nil
}

func (s *registryService) UpdateRates(ctx context.Context, id uuid.UUID, req dto.UpdateRatesRequest) (*dto.CurrencyResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("currency not found")
	}
	c.RateToUSD = req.RateToUSD
	c.BuyRateToUSD = req.BuyRateToUSD
	c.SellRateToUSD = req.SellRateToUSD
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return currencyToResponse(c), nil
}

func (s *registryService) GetRate(ctx context.Context, currencyID uuid.UUID) (RateTriple, error) {
	c, err := s.repo.FindByID(ctx, currencyID)
	if err != nil {
		return RateTriple{}, errors.New("currency not found")
	}
	return tripleOf(c), nil
}

func (s *registryService) SnapshotAll(ctx context.Context) ([]RateTriple, error) {
	currencies, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	triples := make([]RateTriple, 0, len(currencies))
	for i := range currencies {
		triples = append(triples, tripleOf(&currencies[i]))
	}
	return triples, nil
}

func (s *registryService) SyncRates(ctx context.Context) error {
	if s.feed == nil {
		return nil
	}
	rates, err := s.feed.FetchReferenceRates(ctx)
	if err != nil {
		return err
	}
	currencies, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	updated := 0
	for i := range currencies {
		c := &currencies[i]
		rate, ok := rates[c.Code]
		if !ok || !rate.IsPositive() {
			continue
		}
		if rate.Equal(c.RateToUSD) {
			continue
		}
		c.RateToUSD = rate
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		updated++
	}
	if updated > 0 {
		log.Info().Int("currencies", updated).Msg("reference rates synced from feed")
	}
	return nil
}

func tripleOf(c *model.Currency) RateTriple {
	return RateTriple{
		CurrencyID:    c.ID,
		CurrencyCode:  c.Code,
		RateToUSD:     c.RateToUSD,
		BuyRateToUSD:  c.BuyRateToUSD,
		SellRateToUSD: c.SellRateToUSD,
	}
}

func currencyToResponse(c *model.Currency) *dto.CurrencyResponse {
	return &dto.CurrencyResponse{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		RateToUSD:     c.RateToUSD,
		BuyRateToUSD:  c.BuyRateToUSD,
		SellRateToUSD: c.SellRateToUSD,
		IsCrypto:      c.IsCrypto,
	}
}
