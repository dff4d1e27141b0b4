package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"sasabot/internal/refdata"
)

// ValidCategories is the closed set of product categories. Category
// input is matched case-insensitively and canonicalised to this spelling.
var ValidCategories = []string{
	"Electronics", "Accessories", "Storage", "Audio", "Mobile",
	"Computing", "Gaming", "Cameras", "Wearables", "Home & Garden",
}

// genericNames are rejected outright: a bare "phone" or "laptop" is
// almost always an under-specified or hallucinated product reference.
var genericNames = map[string]bool{
	"product": true, "item": true, "generic": true, "smartphone": true,
	"laptop": true, "phone": true, "computer": true, "device": true,
	"gadget": true, "accessory": true,
}

// genericDescriptions are boilerplate phrases that carry no information.
var genericDescriptions = map[string]bool{
	"good product": true, "nice item": true, "quality product": true,
	"great device": true, "excellent item": true, "good quality": true,
	"best product": true, "amazing product": true,
}

var warrantyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+\s*(month|months|year|years?)$`),
	regexp.MustCompile(`(?i)^(no warranty|lifetime|limited)$`),
}

// Validation thresholds, in KSh and units.
const (
	minNameLen        = 3
	maxNameLen        = 100
	minDescriptionLen = 10
	maxDescriptionLen = 500
	minBrandLen       = 2
	highPrice         = 10_000_000
	lowPrice          = 50
	highStock         = 10_000
	brandSuggestionN  = 10
)

// FieldResult is the outcome of validating a single product field.
// Warnings never block; errors always do.
type FieldResult struct {
	Valid      bool   `json:"valid"`
	Value      string `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
	Warning    string `json:"warning,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func fieldOK(value string) FieldResult {
	return FieldResult{Valid: true, Value: value}
}

func fieldErr(format string, args ...any) FieldResult {
	return FieldResult{Error: fmt.Sprintf(format, args...)}
}

// ProductInput carries the raw, user-supplied fields for a product.
// Everything arrives as text because the caller is a chat layer.
type ProductInput struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Warranty    string `json:"warranty"`
}

// ValidatedProduct holds the coerced, normalized field values after a
// full record validation passed.
type ValidatedProduct struct {
	Name        string
	Price       float64
	Stock       int
	Category    string
	Description string
	Brand       string
	Warranty    string
}

// ValidationReport aggregates the per-field outcomes of a whole-record
// validation. The record is valid only if every required field passed.
type ValidationReport struct {
	Valid     bool
	Errors    []string
	Warnings  []string
	Validated ValidatedProduct
}

// Validator checks candidate product fields against the business rules.
// It is stateless apart from the read-only brand reference set.
type Validator struct {
	brands *refdata.BrandSet
}

// NewValidator creates a validator using the given brand reference set.
// A nil set falls back to the built-in default list.
func NewValidator(brands *refdata.BrandSet) *Validator {
	if brands == nil {
		brands = refdata.NewBrandSet(refdata.DefaultBrands)
	}
	return &Validator{brands: brands}
}

// ValidateName checks length bounds and rejects overly generic names.
func (v *Validator) ValidateName(name string) FieldResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return fieldErr("Product name is required")
	}
	if utf8.RuneCountInString(name) < minNameLen {
		return fieldErr("Product name must be at least %d characters long", minNameLen)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fieldErr("Product name must be less than %d characters", maxNameLen)
	}
	if genericNames[strings.ToLower(name)] {
		return FieldResult{
			Error:      fmt.Sprintf("%q is too generic. Please provide a specific model name and specifications", name),
			Suggestion: "Example: 'iPhone 13 Pro Max 256GB Blue' instead of just 'phone'",
		}
	}
	return fieldOK(name)
}

// ValidatePrice coerces the price to a positive amount. Very high and
// very low prices are accepted with a confirmation warning.
func (v *Validator) ValidatePrice(raw string) (float64, FieldResult) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fieldErr("Price is required")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fieldErr("Price must be a valid number")
	}
	if price <= 0 {
		return 0, fieldErr("Price must be greater than 0")
	}

	res := fieldOK(raw)
	if price > highPrice {
		res.Warning = "Price seems unrealistically high (over 10 million KSh). Please confirm."
	} else if price < lowPrice {
		res.Warning = "Price seems very low. Please confirm this is correct."
	}
	return price, res
}

// ValidateStock coerces the stock to a non-negative whole number.
func (v *Validator) ValidateStock(raw string) (int, FieldResult) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fieldErr("Stock is required")
	}
	stock, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldErr("Stock must be a whole number")
	}
	if stock < 0 {
		return 0, fieldErr("Stock cannot be negative")
	}

	res := fieldOK(raw)
	if stock == 0 {
		res.Warning = "Adding product with zero stock. It won't be available for purchase."
	} else if stock > highStock {
		res.Warning = "Stock quantity seems very high. Please confirm."
	}
	return stock, res
}

// ValidateCategory matches the category against the closed list,
// ignoring case, and returns the canonical capitalization.
func (v *Validator) ValidateCategory(category string) FieldResult {
	category = strings.TrimSpace(category)
	if category == "" {
		return fieldErr("Category is required")
	}
	for _, valid := range ValidCategories {
		if strings.EqualFold(valid, category) {
			return fieldOK(valid)
		}
	}
	return FieldResult{
		Error:      fmt.Sprintf("Invalid category %q", category),
		Suggestion: "Please choose from: " + strings.Join(ValidCategories, ", "),
	}
}

// ValidateDescription checks length bounds and rejects boilerplate.
func (v *Validator) ValidateDescription(description string) FieldResult {
	description = strings.TrimSpace(description)
	if description == "" {
		return fieldErr("Product description is required")
	}
	if utf8.RuneCountInString(description) < minDescriptionLen {
		return fieldErr("Description is too short. Please provide at least %d characters with meaningful details.", minDescriptionLen)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return fieldErr("Description is too long. Please keep it under %d characters.", maxDescriptionLen)
	}
	if genericDescriptions[strings.ToLower(description)] {
		return FieldResult{
			Error:      fmt.Sprintf("%q is too generic. Please provide specific features, specifications, or benefits.", description),
			Suggestion: "Example: 'Latest smartphone with 64MP camera, 128GB storage, and fast charging'",
		}
	}
	return fieldOK(description)
}

// ValidateBrand accepts any brand of reasonable length; unrecognized
// brands pass with a suggestion listing the reference list.
func (v *Validator) ValidateBrand(brand string) FieldResult {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return fieldErr("Brand is required")
	}
	if utf8.RuneCountInString(brand) < minBrandLen {
		return fieldErr("Brand name must be at least %d characters", minBrandLen)
	}
	if canonical := v.brands.Canonical(brand); canonical != "" {
		return fieldOK(canonical)
	}
	return FieldResult{
		Valid:      true,
		Value:      titleCase(brand),
		Suggestion: "Unrecognized brand. Common brands include: " + strings.Join(v.brands.Suggestions(brandSuggestionN), ", "),
	}
}

// titleCase capitalizes the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ValidateWarranty matches the warranty against the accepted formats.
func (v *Validator) ValidateWarranty(warranty string) FieldResult {
	warranty = strings.ToLower(strings.TrimSpace(warranty))
	if warranty == "" {
		return fieldErr("Warranty period is required")
	}
	for _, pattern := range warrantyPatterns {
		if pattern.MatchString(warranty) {
			return fieldOK(warranty)
		}
	}
	return FieldResult{
		Error:      "Invalid warranty format",
		Suggestion: "Examples: '12 months', '2 years', '6 months', 'no warranty', 'lifetime'",
	}
}

// ValidateProduct runs every field validator and aggregates the
// results. All seven fields are required for creation; warnings are
// collected for passthrough even when the record is valid.
func (v *Validator) ValidateProduct(in ProductInput) *ValidationReport {
	report := &ValidationReport{}

	collect := func(field string, res FieldResult) {
		if !res.Valid {
			msg := fmt.Sprintf("%s: %s", field, res.Error)
			if res.Suggestion != "" {
				msg += " (" + res.Suggestion + ")"
			}
			report.Errors = append(report.Errors, msg)
			return
		}
		if res.Warning != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", field, res.Warning))
		}
		if res.Suggestion != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", field, res.Suggestion))
		}
	}

	nameRes := v.ValidateName(in.Name)
	collect("name", nameRes)
	report.Validated.Name = nameRes.Value

	price, priceRes := v.ValidatePrice(in.Price)
	collect("price", priceRes)
	report.Validated.Price = price

	stock, stockRes := v.ValidateStock(in.Stock)
	collect("stock", stockRes)
	report.Validated.Stock = stock

	categoryRes := v.ValidateCategory(in.Category)
	collect("category", categoryRes)
	report.Validated.Category = categoryRes.Value

	descriptionRes := v.ValidateDescription(in.Description)
	collect("description", descriptionRes)
	report.Validated.Description = descriptionRes.Value

	brandRes := v.ValidateBrand(in.Brand)
	collect("brand", brandRes)
	report.Validated.Brand = brandRes.Value

	warrantyRes := v.ValidateWarranty(in.Warranty)
	collect("warranty", warrantyRes)
	report.Validated.Warranty = warrantyRes.Value

	report.Valid = len(report.Errors) == 0
	return report
}
