package store

import (
	"net/url"
	"strings"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
)

func validateStatus(s models.ItemStatus) error {
	switch s {
	case models.ItemStatusRequired, models.ItemStatusOptional:
		return nil
	}
	return apperrors.Validation(msgInvalidStatus)
}

func validatePrices(low, high *float64) error {
	if (low != nil && *low < 0) || (high != nil && *high < 0) {
		return apperrors.Validation(msgNegativePrice)
	}
	if low != nil && high != nil && *low > *high {
		return apperrors.Validation(msgPriceRange)
	}
	return nil
}

func validateLink(in models.LinkInput) error {
	if strings.TrimSpace(in.StoreName) == "" {
		return apperrors.Validation(msgStoreRequired)
	}
	u, err := url.ParseRequestURI(strings.TrimSpace(in.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Validation(msgURLInvalid)
	}
	if in.Price != nil && *in.Price < 0 {
		return apperrors.Validation(msgNegativePrice)
	}
	return nil
}

// trimmedOrNil returns nil for blank strings.
func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
