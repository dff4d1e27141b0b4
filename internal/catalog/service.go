package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sasabot/internal/model"
	"sasabot/internal/repository"

	"github.com/rs/zerolog"
)

// Stock thresholds for listing summaries and safety warnings.
const (
	defaultLowStockThreshold = 5
	deleteHighStock          = 10
	deleteHighValue          = 100_000
)

// Stock adjustment operations accepted by AdjustStock.
const (
	StockSet      = "set"
	StockAdd      = "add"
	StockSubtract = "subtract"
)

// UpdateInput carries the optional fields of a partial product update.
// Values are raw text; nil means the field is not being changed.
type UpdateInput struct {
	Name        *string `json:"name,omitempty"`
	Price       *string `json:"price,omitempty"`
	Stock       *string `json:"stock,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	Warranty    *string `json:"warranty,omitempty"`
}

// ListFilter narrows a product listing. Zero values mean no filtering.
type ListFilter struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// InventorySummary aggregates a listing for quick vendor overviews.
type InventorySummary struct {
	TotalCount      int     `json:"total_count"`
	TotalValue      float64 `json:"total_value"`
	LowStockCount   int     `json:"low_stock_count"`
	OutOfStockCount int     `json:"out_of_stock_count"`
}

// ListData is the payload of a successful listing.
type ListData struct {
	Products []model.Product  `json:"products"`
	Summary  InventorySummary `json:"summary"`
}

// StockData is the payload of a stock adjustment.
type StockData struct {
	Product  *model.Product `json:"product"`
	OldStock int            `json:"old_stock"`
	NewStock int            `json:"new_stock"`
}

// DeleteData is the payload of a product removal.
type DeleteData struct {
	Product      *model.Product `json:"product"`
	RemovedValue float64        `json:"removed_value"`
}

// LowStockData is the payload of a low-stock report.
type LowStockData struct {
	Threshold  int                    `json:"threshold"`
	LowStock   []model.ProductSummary `json:"low_stock"`
	OutOfStock []model.ProductSummary `json:"out_of_stock"`
	Status     string                 `json:"status"`
}

// Service implements the catalog operations a vendor performs through
// the conversation layer. Every operation verifies the business and
// resolves product references against stored records before acting, and
// returns a structured Result rather than an error for domain failures.
type Service struct {
	businesses repository.BusinessRepository
	products   repository.ProductRepository
	resolver   *Resolver
	validator  *Validator
	logger     zerolog.Logger
}

// NewService creates a new catalog service.
func NewService(
	businesses repository.BusinessRepository,
	products repository.ProductRepository,
	validator *Validator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		businesses: businesses,
		products:   products,
		resolver:   NewResolver(products, businesses, logger),
		validator:  validator,
		logger:     logger.With().Str("service", "catalog").Logger(),
	}
}

// Resolver exposes the reference resolver for callers that need raw
// resolution without a mutating operation.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// requireBusiness loads the session's business or returns a failure
// result. Exactly one of the return values is non-nil.
func (s *Service) requireBusiness(ctx context.Context, businessID string) (*model.Business, *model.Result) {
	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, model.Err(model.ErrDatabase, "Could not load business information. Please try again.")
	}
	if business == nil {
		return nil, model.Err(model.ErrBusinessNotFound, fmt.Sprintf("Business %q was not found", businessID))
	}
	return business, nil
}

// AddProduct validates and creates a product for the session business.
// A name already in the catalog is rejected with the existing record so
// the caller can offer an update instead.
func (s *Service) AddProduct(ctx context.Context, sess model.SessionContext, in ProductInput) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}

	report := s.validator.ValidateProduct(in)
	if !report.Valid {
		return &model.Result{
			Success:   false,
			Message:   "Product validation failed. Please fix the highlighted fields.",
			ErrorType: model.ErrValidation,
			Errors:    report.Errors,
			Warnings:  report.Warnings,
		}
	}

	existing, err := s.products.FindByExactName(ctx, sess.BusinessID, report.Validated.Name)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not check for existing products. Please try again.")
	}
	if existing != nil {
		res := model.Err(model.ErrDuplicateProduct,
			fmt.Sprintf("%q already exists in your catalog (product %s). Update it instead of adding a duplicate.",
				existing.Name, existing.ID))
		res.Data = existing.Summary()
		return res
	}

	id, err := s.products.NextID(ctx)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not allocate a product ID. Please try again.")
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:          id,
		BusinessID:  sess.BusinessID,
		Name:        report.Validated.Name,
		Price:       report.Validated.Price,
		Stock:       report.Validated.Stock,
		Category:    report.Validated.Category,
		Description: report.Validated.Description,
		Brand:       report.Validated.Brand,
		Warranty:    report.Validated.Warranty,
		SKU:         makeSKU(report.Validated.Name, now),
		Status:      model.ProductActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return model.Err(model.ErrDatabase, "Could not save the product. Please try again.")
	}

	s.logger.Info().
		Str("business_id", sess.BusinessID).
		Str("product_id", product.ID).
		Str("name", product.Name).
		Msg("product added")

	msg := fmt.Sprintf("%s added to your catalog at KSh %.2f with %d in stock.",
		product.Name, product.Price, product.Stock)
	return model.OkWarn(msg, product, report.Warnings)
}

// UpdateProduct applies a partial update to a resolved product. Each
// supplied field is validated with the creation rules; invalid fields
// are skipped with a warning, and the update is rejected only when no
// valid field remains.
func (s *Service) UpdateProduct(ctx context.Context, sess model.SessionContext, identifier string, in UpdateInput) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}

	res, err := s.resolver.Resolve(ctx, sess.BusinessID, identifier)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not look up the product. Please try again.")
	}
	if !res.Exists {
		return model.ErrCtx(model.ErrProductNotFound,
			fmt.Sprintf("No product matching %q was found in your catalog.", identifier),
			res.Context)
	}
	product := res.Product

	fields := map[string]any{}
	var skipped []string

	apply := func(field string, value *string, validate func(string) FieldResult) {
		if value == nil {
			return
		}
		fr := validate(*value)
		if !fr.Valid {
			skipped = append(skipped, fmt.Sprintf("%s not changed: %s", field, fr.Error))
			return
		}
		fields[field] = fr.Value
	}

	apply("name", in.Name, s.validator.ValidateName)
	apply("category", in.Category, s.validator.ValidateCategory)
	apply("description", in.Description, s.validator.ValidateDescription)
	apply("brand", in.Brand, s.validator.ValidateBrand)
	apply("warranty", in.Warranty, s.validator.ValidateWarranty)

	var warnings []string
	if in.Price != nil {
		price, fr := s.validator.ValidatePrice(*in.Price)
		if fr.Valid {
			fields["price"] = price
			if fr.Warning != "" {
				warnings = append(warnings, "price: "+fr.Warning)
			}
		} else {
			skipped = append(skipped, "price not changed: "+fr.Error)
		}
	}
	if in.Stock != nil {
		stock, fr := s.validator.ValidateStock(*in.Stock)
		if fr.Valid {
			fields["stock"] = stock
			if fr.Warning != "" {
				warnings = append(warnings, "stock: "+fr.Warning)
			}
		} else {
			skipped = append(skipped, "stock not changed: "+fr.Error)
		}
	}

	if len(fields) == 0 {
		failure := model.Err(model.ErrNoUpdates,
			fmt.Sprintf("No valid changes were supplied for %s.", product.Name))
		failure.Errors = skipped
		return failure
	}

	// Renaming onto another product's name would create a duplicate.
	if newName, ok := fields["name"].(string); ok && !strings.EqualFold(newName, product.Name) {
		clash, err := s.products.FindByExactName(ctx, sess.BusinessID, newName)
		if err != nil {
			return model.Err(model.ErrDatabase, "Could not check for existing products. Please try again.")
		}
		if clash != nil && clash.ID != product.ID {
			res := model.Err(model.ErrDuplicateProduct,
				fmt.Sprintf("Another product is already named %q (product %s).", clash.Name, clash.ID))
			res.Data = clash.Summary()
			return res
		}
	}

	updated, err := s.products.UpdateFields(ctx, product.ID, fields)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not update the product. Please try again.")
	}
	if !updated {
		return model.Err(model.ErrProductNotFound,
			fmt.Sprintf("Product %s no longer exists.", product.ID))
	}

	fresh, err := s.products.GetByID(ctx, product.ID)
	if err != nil || fresh == nil {
		fresh = product
	}

	s.logger.Info().
		Str("business_id", sess.BusinessID).
		Str("product_id", product.ID).
		Int("fields", len(fields)).
		Msg("product updated")

	changed := make([]string, 0, len(fields))
	for field := range fields {
		changed = append(changed, field)
	}
	msg := fmt.Sprintf("%s updated (%d field(s) changed).", fresh.Name, len(changed))
	return model.OkWarn(msg, fresh, append(warnings, skipped...))
}

// DeleteProduct removes a resolved product, attaching safety warnings
// when the removal destroys significant stock or inventory value.
func (s *Service) DeleteProduct(ctx context.Context, sess model.SessionContext, identifier string) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}

	res, err := s.resolver.Resolve(ctx, sess.BusinessID, identifier)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not look up the product. Please try again.")
	}
	if !res.Exists {
		return model.ErrCtx(model.ErrProductNotFound,
			fmt.Sprintf("No product matching %q was found in your catalog.", identifier),
			res.Context)
	}
	product := res.Product

	removedValue := product.Price * float64(product.Stock)
	var warnings []string
	if product.Stock > deleteHighStock {
		warnings = append(warnings,
			fmt.Sprintf("%s still has %d units in stock.", product.Name, product.Stock))
	}
	if removedValue > deleteHighValue {
		warnings = append(warnings,
			fmt.Sprintf("Removing KSh %.2f worth of inventory.", removedValue))
	}

	deleted, err := s.products.Delete(ctx, product.ID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not delete the product. Please try again.")
	}
	if !deleted {
		return model.Err(model.ErrProductNotFound,
			fmt.Sprintf("Product %s no longer exists.", product.ID))
	}

	s.logger.Info().
		Str("business_id", sess.BusinessID).
		Str("product_id", product.ID).
		Str("name", product.Name).
		Msg("product deleted")

	msg := fmt.Sprintf("%s removed from your catalog.", product.Name)
	return model.OkWarn(msg, DeleteData{Product: product, RemovedValue: removedValue}, warnings)
}

// ListProducts returns the business's active products, optionally
// narrowed by category or a free-text search across name, description
// and brand. An empty result is still a success, with inventory context
// attached so the caller can redirect the conversation.
func (s *Service) ListProducts(ctx context.Context, sess model.SessionContext, filter ListFilter) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}

	products, err := s.products.GetByBusiness(ctx, sess.BusinessID, true)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load your products. Please try again.")
	}

	filtered := make([]model.Product, 0, len(products))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, p := range products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if search != "" && !matchesSearch(&p, search) {
			continue
		}
		filtered = append(filtered, p)
	}

	summary := InventorySummary{TotalCount: len(filtered)}
	for _, p := range filtered {
		summary.TotalValue += p.Price * float64(p.Stock)
		switch {
		case p.Stock == 0:
			summary.OutOfStockCount++
		case p.Stock <= defaultLowStockThreshold:
			summary.LowStockCount++
		}
	}

	result := model.Ok(
		fmt.Sprintf("Found %d product(s).", len(filtered)),
		ListData{Products: filtered, Summary: summary})

	if len(filtered) == 0 {
		rc, err := s.resolver.BuildContext(ctx, sess.BusinessID, filter.Search)
		if err == nil {
			result.Context = rc
		}
		if filter.Category != "" || filter.Search != "" {
			result.Message = "No products matched your filter."
		} else {
			result.Message = "Your catalog is empty. Add your first product to get started."
		}
	}

	return result
}

// AdjustStock sets, adds to, or subtracts from a resolved product's
// stock. Subtraction floors at zero.
func (s *Service) AdjustStock(ctx context.Context, sess model.SessionContext, identifier string, quantity int, op string) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}
	if quantity < 0 {
		return model.Err(model.ErrValidation, "Quantity cannot be negative.")
	}

	res, err := s.resolver.Resolve(ctx, sess.BusinessID, identifier)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not look up the product. Please try again.")
	}
	if !res.Exists {
		return model.ErrCtx(model.ErrProductNotFound,
			fmt.Sprintf("No product matching %q was found in your catalog.", identifier),
			res.Context)
	}
	product := res.Product
	oldStock := product.Stock

	var newStock int
	switch op {
	case StockSet:
		newStock, err = s.products.SetStock(ctx, product.ID, quantity)
	case StockAdd:
		newStock, err = s.products.AdjustStock(ctx, product.ID, quantity)
	case StockSubtract:
		newStock, err = s.products.AdjustStock(ctx, product.ID, -quantity)
	default:
		return model.Err(model.ErrValidation,
			fmt.Sprintf("Unknown stock operation %q. Use set, add or subtract.", op))
	}
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not update stock. Please try again.")
	}
	product.Stock = newStock

	var warnings []string
	switch {
	case newStock == 0:
		warnings = append(warnings, fmt.Sprintf("%s is now out of stock.", product.Name))
	case newStock <= defaultLowStockThreshold:
		warnings = append(warnings, fmt.Sprintf("%s is running low (%d left).", product.Name, newStock))
	}

	s.logger.Info().
		Str("business_id", sess.BusinessID).
		Str("product_id", product.ID).
		Str("op", op).
		Int("old_stock", oldStock).
		Int("new_stock", newStock).
		Msg("stock adjusted")

	msg := fmt.Sprintf("%s stock updated from %d to %d.", product.Name, oldStock, newStock)
	return model.OkWarn(msg, StockData{Product: product, OldStock: oldStock, NewStock: newStock}, warnings)
}

// LowStockReport lists products at or below the threshold, split into
// low-stock and out-of-stock buckets. A non-positive threshold uses the
// default of five units.
func (s *Service) LowStockReport(ctx context.Context, sess model.SessionContext, threshold int) *model.Result {
	if _, fail := s.requireBusiness(ctx, sess.BusinessID); fail != nil {
		return fail
	}
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}

	products, err := s.products.GetByBusiness(ctx, sess.BusinessID, true)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load your products. Please try again.")
	}

	data := LowStockData{
		Threshold:  threshold,
		LowStock:   []model.ProductSummary{},
		OutOfStock: []model.ProductSummary{},
		Status:     "good",
	}
	for i := range products {
		switch {
		case products[i].Stock == 0:
			data.OutOfStock = append(data.OutOfStock, products[i].Summary())
		case products[i].Stock <= threshold:
			data.LowStock = append(data.LowStock, products[i].Summary())
		}
	}

	msg := "All products are sufficiently stocked."
	if len(data.LowStock) > 0 || len(data.OutOfStock) > 0 {
		data.Status = "attention_needed"
		msg = fmt.Sprintf("%d product(s) are low on stock and %d are out of stock.",
			len(data.LowStock), len(data.OutOfStock))
	}

	return model.Ok(msg, data)
}

// matchesSearch reports whether the term appears in the product's name,
// description or brand, ignoring case.
func matchesSearch(p *model.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}

var skuStrip = regexp.MustCompile(`[^A-Z0-9]`)

// makeSKU derives a SKU from the first two name tokens and the creation
// date, e.g. "iPhone 13 Pro" created 2026-08-31 becomes IPHONE-13-20260831.
func makeSKU(name string, at time.Time) string {
	tokens := strings.Fields(strings.ToUpper(name))
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	parts := make([]string, 0, 3)
	for _, t := range tokens {
		if clean := skuStrip.ReplaceAllString(t, ""); clean != "" {
			parts = append(parts, clean)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "SKU")
	}
	parts = append(parts, at.Format("20060102"))
	return strings.Join(parts, "-")
}
