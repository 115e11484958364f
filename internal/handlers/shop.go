package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/store"
)

// productsPerPage is the page size for category and search listings.
const productsPerPage = 24

// similarProducts is how many same-category products a product page shows.
const similarProducts = 4

// Shop groups the public storefront handlers: homepage, category
// listings, product pages and search.
type Shop struct {
	renderer      *render.Renderer
	productStore  *store.ProductStore
	categoryStore *store.CategoryStore
	sliderStore   *store.SliderStore
	commentStore  *store.CommentStore
	themeStore    *store.ThemeStore
	imageBase     string
}

// NewShop creates the Shop handler group. imageBase is the public URL
// prefix for stored images (empty when object storage is disabled).
func NewShop(renderer *render.Renderer, products *store.ProductStore, categories *store.CategoryStore, sliders *store.SliderStore, comments *store.CommentStore, themes *store.ThemeStore, imageBase string) *Shop {
	return &Shop{
		renderer:      renderer,
		productStore:  products,
		categoryStore: categories,
		sliderStore:   sliders,
		commentStore:  comments,
		themeStore:    themes,
		imageBase:     imageBase,
	}
}

// pageTheme resolves the session's chosen theme for the layout, nil
// when the default styling applies.
func (s *Shop) pageTheme(r *http.Request) *models.Theme {
	return themeFor(r, s.themeStore)
}

// Home renders the storefront homepage with the active slider, the
// category tree and the newest products.
func (s *Shop) Home(w http.ResponseWriter, r *http.Request) {
	slider, err := s.sliderStore.FindActive()
	if err != nil {
		slog.Error("active slider lookup failed", "error", err)
	}

	categories, err := s.categoryStore.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}

	products, err := s.productStore.ListNewest(12)
	if err != nil {
		slog.Error("newest products failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.renderer.Page(w, r, "home", &render.PageData{
		Title:   "Sklep",
		Section: "shop",
		Data: map[string]any{
			"Slider":     slider,
			"Categories": categories,
			"Products":   products,
			"ImageBase":  s.imageBase,
			"Theme":      s.pageTheme(r),
		},
	})
}

// Category renders a paginated product listing for one category.
func (s *Shop) Category(w http.ResponseWriter, r *http.Request) {
	category, err := s.categoryStore.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.NotFound(w, r)
		return
	}

	page := queryPage(r)
	products, total, err := s.productStore.ListByCategory(category.ID, page, productsPerPage)
	if err != nil {
		slog.Error("category products failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	totalPages := (total + productsPerPage - 1) / productsPerPage
	s.renderer.Page(w, r, "category", &render.PageData{
		Title:   category.Name,
		Section: "shop",
		Data: map[string]any{
			"Category":   category,
			"Products":   products,
			"Page":       page,
			"PrevPage":   page - 1,
			"NextPage":   page + 1,
			"TotalPages": totalPages,
			"ImageBase":  s.imageBase,
			"Theme":      s.pageTheme(r),
		},
	})
}

// Product renders a product detail page: description, comments visible
// to the viewer, and similar products from the same category.
func (s *Shop) Product(w http.ResponseWriter, r *http.Request) {
	product, err := s.productStore.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	// Signed-in viewers also see their own comments awaiting moderation.
	var viewerID *uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		viewerID = &sess.UserID
	}
	comments, err := s.commentStore.ListVisibleForProduct(product.ID, viewerID)
	if err != nil {
		slog.Error("product comments failed", "error", err)
	}

	var similar []models.Product
	if product.CategoryID != nil {
		similar, err = s.productStore.ListSimilar(*product.CategoryID, product.ID, similarProducts)
		if err != nil {
			slog.Error("similar products failed", "error", err, "product_id", product.ID)
		}
	}

	s.renderer.Page(w, r, "product", &render.PageData{
		Title:   product.Name,
		Section: "shop",
		Data: map[string]any{
			"Product":   product,
			"Comments":  comments,
			"Similar":   similar,
			"ImageBase": s.imageBase,
			"Theme":     s.pageTheme(r),
		},
	})
}

// Search renders full-text product search results.
func (s *Shop) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var products []models.Product
	if query != "" {
		var err error
		products, err = s.productStore.Search(query, 50)
		if err != nil {
			slog.Error("product search failed", "error", err, "query", query)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	s.renderer.Page(w, r, "search", &render.PageData{
		Title:   "Szukaj",
		Section: "shop",
		Data: map[string]any{
			"Query":     query,
			"Products":  products,
			"ImageBase": s.imageBase,
			"Theme":     s.pageTheme(r),
		},
	})
}

