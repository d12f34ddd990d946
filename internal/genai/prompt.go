package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terrainnova/chatbot/internal/catalog"
)

// CatalogReader exposes the live catalog for prompt assembly.
type CatalogReader interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// PromptBuilder assembles the TerraInnova system prompt, injecting the
// current catalog when the database answers.
type PromptBuilder struct {
	logger  *slog.Logger
	catalog CatalogReader
}

// NewPromptBuilder creates a prompt builder. catalog may be nil.
func NewPromptBuilder(log *slog.Logger, catalog CatalogReader) *PromptBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &PromptBuilder{
		logger:  log.With(slog.String("service", "prompts")),
		catalog: catalog,
	}
}

const promptIntro = `Eres un asistente virtual especializado de TerraINNOVA, un emprendimiento ecológico boliviano líder en sostenibilidad ambiental.

📋 INFORMACIÓN DE LA EMPRESA:
• Nombre: TerraINNOVA
• Ubicación: Santa Cruz de la Sierra, Bolivia
• Contacto: terrainnova@gmail.com
• Redes sociales: Instagram, Facebook, TikTok

🌱 QUÉ SOMOS:
TerraINNOVA es un emprendimiento ecológico boliviano que promueve la economía circular a través de la recolección, transformación y comercialización de residuos orgánicos en forma de compost 100% natural.

✅ BENEFICIOS PARA CLIENTES:
• 🚚 Envío GRATIS en pedidos superiores a $300
• 🔒 Pago 100% seguro
• ↩️ Devolución garantizada en 30 días
• 📞 Soporte técnico 24/7
• 🌱 Productos 100% naturales y ecológicos
`

const promptFAQ = `
❓ PREGUNTAS FRECUENTES:

P: ¿Qué es el compost?
R: El compost es un abono orgánico que se obtiene de la descomposición controlada de residuos orgánicos como restos de comida, hojas y otros materiales naturales. Es rico en nutrientes y mejora la estructura del suelo.

P: ¿Cómo uso el compost en mi jardín?
R: Mezcla el compost con la tierra existente en proporción 1:3 (una parte de compost por tres de tierra). Para macetas, puedes usar hasta 50% compost. Aplica en primavera y otoño para mejores resultados.

P: ¿Para qué plantas sirve el compost?
R: Nuestro compost es universal y sirve para todo tipo de plantas: hortalizas, frutales, ornamentales, césped, plantas de interior.

P: ¿Cuánto tiempo dura el compost?
R: Puede durar hasta 2 años almacenado en lugar seco y ventilado. Una vez aplicado al suelo, sus beneficios duran entre 6 y 12 meses.
`

const promptInstructions = `
🎯 INSTRUCCIONES PARA RESPONDER:
1. Siempre mantén un tono amigable, profesional y orientado a la sostenibilidad
2. Prioriza la educación ambiental en tus respuestas
3. Destaca los beneficios ecológicos de nuestros productos
4. Cuando menciones productos, incluye precios y beneficios específicos
5. Si preguntan por productos similares, compara opciones disponibles
6. Para consultas de presupuesto, recomienda la mejor opción en ese rango
7. Promueve la economía circular y prácticas sostenibles
8. Responde en español (somos una empresa boliviana)
9. Si no tienes información específica, ofrece contactar con nuestro equipo
`

// SystemPrompt builds the full system prompt with the current catalog.
// Catalog failures degrade to a placeholder line, never an error.
func (b *PromptBuilder) SystemPrompt(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString(promptIntro)
	sb.WriteString(b.catalogBlock(ctx))
	sb.WriteString(promptFAQ)
	sb.WriteString(promptInstructions)
	return sb.String()
}

func (b *PromptBuilder) catalogBlock(ctx context.Context) string {
	const placeholder = "\n🛍️ CATÁLOGO: Productos disponibles (consulta en tiempo real)\n"
	if b.catalog == nil {
		return placeholder
	}
	products, err := b.catalog.Products(ctx)
	if err != nil || len(products) == 0 {
		if err != nil {
			b.logger.Warn("catalog unavailable for prompt", slog.Any("error", err))
		}
		return placeholder
	}

	var sb strings.Builder
	sb.WriteString("\n🛍️ CATÁLOGO DE PRODUCTOS DISPONIBLES:\n")
	for _, p := range products {
		stock := "✅ Disponible"
		if p.Stock <= 0 {
			stock = "❌ Agotado"
		}
		category := p.CategoryName
		if category == "" {
			category = "Sin categoría"
		}
		fmt.Fprintf(&sb, "\n• %s - %.0f Bs\n  Categoría: %s\n  Stock: %s\n  Descripción: %s\n",
			p.Name, p.Price, category, stock, p.Description)
	}

	if categories, err := b.catalog.Categories(ctx); err == nil && len(categories) > 0 {
		sb.WriteString("\n🏷️ CATEGORÍAS DISPONIBLES:\n")
		for _, c := range categories {
			fmt.Fprintf(&sb, "• %s\n", c.Name)
		}
	}
	return sb.String()
}
