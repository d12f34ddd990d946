package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var productIDPattern = regexp.MustCompile(`producto\s+(\d+)`)

// FormatProduct renders one product as a chatbot-friendly block.
func FormatProduct(p Product) string {
	stock := "✅ En stock"
	if p.Stock <= 0 {
		stock = "❌ Agotado"
	}
	category := p.CategoryName
	if category == "" {
		category = "Sin categoría"
	}
	return fmt.Sprintf(`
🌱 **%s**
💰 Precio: %.0f Bs
📦 Stock: %s
🏷️ Categoría: %s
📝 Descripción: %s
`, p.Name, p.Price, stock, category, p.Description)
}

func formatList(header string, products []Product) string {
	var b strings.Builder
	b.WriteString(header)
	for _, p := range products {
		b.WriteString(FormatProduct(p))
		b.WriteString("\n---\n")
	}
	return b.String()
}

// SearchSummary formats the search results for a term. found is false when
// nothing matched; the summary then carries the "nothing found" message.
func (s *Service) SearchSummary(ctx context.Context, term string) (string, bool, error) {
	products, err := s.Search(ctx, term)
	if err != nil {
		return "", false, err
	}
	if len(products) == 0 {
		return fmt.Sprintf("No encontré productos relacionados con '%s'. ¿Puedes ser más específico?", term), false, nil
	}
	header := fmt.Sprintf("🔍 **Encontré %d producto(s) para '%s':**\n\n", len(products), term)
	return formatList(header, products), true, nil
}

// BudgetSummary formats products within the budget ceiling. An empty result
// still yields a message, never an empty string.
func (s *Service) BudgetSummary(ctx context.Context, maxPrice float64) (string, error) {
	products, err := s.ByBudget(ctx, maxPrice)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return fmt.Sprintf("No encontré productos dentro del presupuesto de $%.0f.", maxPrice), nil
	}
	header := fmt.Sprintf("💰 **Productos dentro de tu presupuesto de $%.0f:**\n\n", maxPrice)
	return formatList(header, products), nil
}

// CatalogSummary formats the full catalog.
func (s *Service) CatalogSummary(ctx context.Context) (string, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "No hay productos disponibles en este momento.", nil
	}
	return formatList("🛍️ **PRODUCTOS DISPONIBLES EN TERRAINNOVA:**\n\n", products), nil
}

// ProductSummary formats one product by id; found=false when absent.
func (s *Service) ProductSummary(ctx context.Context, id int) (string, bool, error) {
	p, found, err := s.ProductByID(ctx, id)
	if err != nil || !found {
		return "", false, err
	}
	return FormatProduct(p), true, nil
}

// ResolveImage finds the image URL of a product mentioned by name in the
// message or reply, or referenced as "producto <id>" in the message.
// Empty string when nothing matches.
func (s *Service) ResolveImage(ctx context.Context, message, reply string) string {
	msg := strings.ToLower(message)
	rep := strings.ToLower(reply)

	products, err := s.Products(ctx)
	if err == nil {
		for _, p := range products {
			name := strings.ToLower(p.Name)
			if name == "" {
				continue
			}
			if strings.Contains(msg, name) || strings.Contains(rep, name) {
				return p.ImageURL
			}
		}
	}

	if m := productIDPattern.FindStringSubmatch(msg); m != nil {
		id, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			if p, found, err := s.ProductByID(ctx, id); err == nil && found {
				return p.ImageURL
			}
		}
	}
	return ""
}
