package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationResult holds the accepted records of a batch and one error per rejected sample.
type ValidationResult struct {
	Valid    []domain.ExchangeRate
	Rejected []error
}

// SampleValidator turns raw samples into history records, enforcing code and range rules.
type SampleValidator struct {
	BaseService
	validate *validator.Validate
}

// NewSampleValidator creates a SampleValidator.
func NewSampleValidator() *SampleValidator {
	return &SampleValidator{validate: validator.New()}
}

// Validate checks one sample from source and derives its history record.
func (v *SampleValidator) Validate(source string, sample domain.RawSample) (domain.ExchangeRate, error) {
	sample.CurrencyCode = domain.NormalizeCurrencyCode(sample.CurrencyCode)

	if err := v.validate.Struct(sample); err != nil {
		return domain.ExchangeRate{}, apperrors.NewDataValidationError(sample.CurrencyCode, describe(err))
	}
	if !domain.IsSupportedCurrency(sample.CurrencyCode) {
		return domain.ExchangeRate{}, apperrors.NewDataValidationError(sample.CurrencyCode, "unsupported currency code")
	}

	rec, err := domain.NewExchangeRate(sample.CurrencyCode, source, decimal.NewFromFloat(sample.Rate), sample.ObservedAt)
	if err != nil {
		return domain.ExchangeRate{}, apperrors.NewDataValidationError(sample.CurrencyCode, err.Error())
	}
	return rec, nil
}

// ValidateBatch validates every sample, logging and collecting rejections without stopping.
func (v *SampleValidator) ValidateBatch(ctx context.Context, source string, samples []domain.RawSample) ValidationResult {
	res := ValidationResult{Valid: make([]domain.ExchangeRate, 0, len(samples))}
	for _, s := range samples {
		rec, err := v.Validate(source, s)
		if err != nil {
			v.LogWarn(ctx, err, "Sample rejected", slog.String("currency_code", s.CurrencyCode), slog.Float64("rate", s.Rate))
			res.Rejected = append(res.Rejected, err)
			continue
		}
		res.Valid = append(res.Valid, rec)
	}
	return res
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+"="+fe.Param())
		} else {
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
