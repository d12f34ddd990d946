// Package intent scans user messages for actionable product intents and
// enriches them with catalog data before generation.
package intent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Catalog is the product-catalog collaborator consumed during enhancement.
type Catalog interface {
	SearchSummary(ctx context.Context, term string) (summary string, found bool, err error)
	BudgetSummary(ctx context.Context, maxPrice float64) (string, error)
	CatalogSummary(ctx context.Context) (string, error)
	ProductSummary(ctx context.Context, id int) (summary string, found bool, err error)
}

// Enhancer appends structured catalog blocks to messages that express a
// search, budget, catalog or direct-lookup intent. The four categories are
// attempted independently; within a category only the first matching pattern
// fires. Any catalog failure degrades to the original text.
type Enhancer struct {
	logger  *slog.Logger
	catalog Catalog
}

// NewEnhancer creates an enhancer. A nil catalog disables enhancement.
func NewEnhancer(log *slog.Logger, catalog Catalog) *Enhancer {
	if log == nil {
		log = slog.Default()
	}
	return &Enhancer{
		logger:  log.With(slog.String("service", "intent")),
		catalog: catalog,
	}
}

// Enhance returns the message with any matching intent blocks appended, or
// the original text untouched when nothing matches or the catalog fails.
func (e *Enhancer) Enhance(ctx context.Context, text string) string {
	if e.catalog == nil {
		return text
	}

	lower := strings.ToLower(text)
	enriched := text

	block, err := e.searchBlock(ctx, lower)
	if err != nil {
		e.logger.Warn("search enhancement skipped", slog.Any("error", err))
		return text
	}
	enriched += block

	block, err = e.budgetBlock(ctx, lower)
	if err != nil {
		e.logger.Warn("budget enhancement skipped", slog.Any("error", err))
		return text
	}
	enriched += block

	block, err = e.catalogBlock(ctx, lower)
	if err != nil {
		e.logger.Warn("catalog enhancement skipped", slog.Any("error", err))
		return text
	}
	enriched += block

	block, err = e.lookupBlock(ctx, lower)
	if err != nil {
		e.logger.Warn("lookup enhancement skipped", slog.Any("error", err))
		return text
	}
	enriched += block

	return enriched
}

func (e *Enhancer) searchBlock(ctx context.Context, lower string) (string, error) {
	for _, pattern := range searchPatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		term := strings.TrimSpace(m[1])
		if !validSearchTerm(term) {
			// An unusable capture does not stop the scan; a later,
			// more specific pattern may still yield a real term.
			continue
		}
		summary, found, err := e.catalog.SearchSummary(ctx, term)
		if err != nil {
			return "", err
		}
		if found {
			return "\n\n[PRODUCTOS ENCONTRADOS]: " + summary, nil
		}
		return "", nil
	}
	return "", nil
}

func (e *Enhancer) budgetBlock(ctx context.Context, lower string) (string, error) {
	for _, pattern := range budgetPatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		summary, err := e.catalog.BudgetSummary(ctx, amount)
		if err != nil {
			return "", err
		}
		// Appended unconditionally: an empty budget yields the
		// "nothing in range" message.
		return "\n\n[PRODUCTOS EN PRESUPUESTO]: " + summary, nil
	}
	return "", nil
}

func (e *Enhancer) catalogBlock(ctx context.Context, lower string) (string, error) {
	for _, pattern := range catalogPatterns {
		if !pattern.MatchString(lower) {
			continue
		}
		summary, err := e.catalog.CatalogSummary(ctx)
		if err != nil {
			return "", err
		}
		return "\n\n[CATÁLOGO COMPLETO]: " + summary, nil
	}
	return "", nil
}

func (e *Enhancer) lookupBlock(ctx context.Context, lower string) (string, error) {
	m := lookupPattern.FindStringSubmatch(lower)
	if m == nil {
		return "", nil
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return "", nil
	}
	summary, found, err := e.catalog.ProductSummary(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return "\n\n[PRODUCTO ESPECÍFICO]: " + summary, nil
}

func validSearchTerm(term string) bool {
	if utf8.RuneCountInString(term) <= 2 {
		return false
	}
	_, stop := searchStopWords[term]
	return !stop
}
