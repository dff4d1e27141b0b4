package catalog

import (
	"context"
	"fmt"
	"strings"

	"sasabot/internal/model"
	"sasabot/internal/repository"

	"github.com/rs/zerolog"
)

// ResolutionContext describes what the business actually stocks. It is
// returned whenever a product reference fails to resolve so the caller
// can steer the conversation back to real inventory instead of
// inventing a product.
type ResolutionContext struct {
	SearchTerm        string                 `json:"search_term"`
	BusinessName      string                 `json:"business_name"`
	AvailableProducts []model.ProductSummary `json:"available_products"`
	Categories        []string               `json:"categories"`
	SuggestionPrompt  string                 `json:"suggestion_prompt"`
}

// Resolution is the outcome of resolving a product reference. Exactly
// one of Product or Context is set.
type Resolution struct {
	Exists  bool
	Product *model.Product
	Context *ResolutionContext
}

// Resolver maps free-text product references from a conversation onto
// catalog records. Every reference must resolve against the database
// before any operation acts on it.
type Resolver struct {
	products   repository.ProductRepository
	businesses repository.BusinessRepository
	logger     zerolog.Logger
}

// NewResolver creates a new product reference resolver.
func NewResolver(products repository.ProductRepository, businesses repository.BusinessRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		products:   products,
		businesses: businesses,
		logger:     logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve looks up a product by identifier within a single business.
// An all-digit identifier is treated as a product ID; anything else is
// matched as a case-insensitive substring of product names, first match
// in creation order winning. A product belonging to another business is
// reported as not found.
func (r *Resolver) Resolve(ctx context.Context, businessID, identifier string) (*Resolution, error) {
	identifier = strings.TrimSpace(identifier)

	var product *model.Product
	var err error

	if isDigits(identifier) {
		product, err = r.products.GetByID(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if product != nil && product.BusinessID != businessID {
			r.logger.Warn().
				Str("product_id", identifier).
				Str("business_id", businessID).
				Str("owner_business_id", product.BusinessID).
				Msg("cross-business product lookup rejected")
			product = nil
		}
	} else if identifier != "" {
		product, err = r.products.FindByName(ctx, businessID, identifier)
		if err != nil {
			return nil, err
		}
	}

	if product != nil {
		return &Resolution{Exists: true, Product: product}, nil
	}

	rc, err := r.BuildContext(ctx, businessID, identifier)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("business_id", businessID).
		Str("identifier", identifier).
		Int("available", len(rc.AvailableProducts)).
		Msg("product reference did not resolve")

	return &Resolution{Exists: false, Context: rc}, nil
}

// BuildContext assembles the business's real inventory snapshot used to
// ground a failed lookup: active product summaries, the distinct
// categories in creation order, and a redirection prompt.
func (r *Resolver) BuildContext(ctx context.Context, businessID, term string) (*ResolutionContext, error) {
	business, err := r.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	businessName := "this business"
	if business != nil {
		businessName = business.Name
	}

	products, err := r.products.GetByBusiness(ctx, businessID, true)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ProductSummary, 0, len(products))
	var categories []string
	seen := map[string]bool{}
	for i := range products {
		summaries = append(summaries, products[i].Summary())
		if c := products[i].Category; c != "" && !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}

	prompt := fmt.Sprintf(
		"No product matching %q was found at %s. Only suggest items from the available products list. If nothing fits, say the item is not stocked and offer the closest categories.",
		term, businessName)
	if term == "" {
		prompt = fmt.Sprintf(
			"No product reference was given. Only suggest items from %s's available products list.",
			businessName)
	}

	return &ResolutionContext{
		SearchTerm:        term,
		BusinessName:      businessName,
		AvailableProducts: summaries,
		Categories:        categories,
		SuggestionPrompt:  prompt,
	}, nil
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
