// Package catalog reads the storefront product catalog from Postgres and
// renders it for the chatbot.
package catalog

// Product is one storefront product row, category pre-joined.
type Product struct {
	ID           int     `json:"id"`
	Name         string  `json:"nombre"`
	Description  string  `json:"descripcion"`
	Price        float64 `json:"precio"`
	Stock        int     `json:"stock"`
	ImageURL     string  `json:"imagenUrl,omitempty"`
	CategoryID   int     `json:"categoria_id"`
	CategoryName string  `json:"categoria_nombre,omitempty"`
}

// Category is one storefront category row.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}
