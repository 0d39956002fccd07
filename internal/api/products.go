package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// Wire shape: the catalog nests product fields under "attributes" and
// transmits prices in minor currency units.
type productAttributes struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	OriginalPrice int64     `json:"originalPrice"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	Stock         int       `json:"stock"`
	Rating        float64   `json:"rating"`
	SKU           string    `json:"sku"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"createdAt"`
}

type productDTO struct {
	Attributes productAttributes `json:"attributes"`
}

type productsData struct {
	Products   []productDTO `json:"products"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
	HasNext    bool         `json:"hasNext"`
	HasPrev    bool         `json:"hasPrev"`
}

// minorUnitsPerMajor converts catalog prices (centavos) to pesos.
const minorUnitsPerMajor = 100

func convertProduct(dto productDTO) domain.Product {
	a := dto.Attributes
	return domain.Product{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		Price:         a.Price / minorUnitsPerMajor,
		OriginalPrice: a.OriginalPrice / minorUnitsPerMajor,
		Image:         a.Image,
		Category:      a.Category,
		Stock:         a.Stock,
		Rating:        a.Rating,
		SKU:           a.SKU,
		Slug:          domain.Slugify(a.Name),
		Featured:      a.Featured,
		CreatedAt:     a.CreatedAt,
	}
}

func convertProductPage(data productsData) *domain.ProductPage {
	page := &domain.ProductPage{
		Products:   make([]domain.Product, 0, len(data.Products)),
		Total:      data.Total,
		Page:       data.Page,
		Limit:      data.Limit,
		TotalPages: data.TotalPages,
		HasNext:    data.HasNext,
		HasPrev:    data.HasPrev,
	}
	for _, dto := range data.Products {
		page.Products = append(page.Products, convertProduct(dto))
	}
	return page
}

// Products fetches one catalog page. Concurrent identical fetches are
// collapsed into a single request.
func (c *Client) Products(ctx context.Context, page, limit int) (*domain.ProductPage, error) {
	key := fmt.Sprintf("products:%d:%d", page, limit)
	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(limit))

		var data productsData
		if err := c.do(ctx, http.MethodGet, "/api/v1/products", query, nil, &data); err != nil {
			return nil, fmt.Errorf("fetch products failed: %w", err)
		}
		return convertProductPage(data), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProductPage), nil
}

func (c *Client) SearchProducts(ctx context.Context, search string, page, limit int) (*domain.ProductPage, error) {
	query := url.Values{}
	query.Set("search", search)
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var data productsData
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/search", query, nil, &data); err != nil {
		return nil, fmt.Errorf("search products failed: %w", err)
	}
	return convertProductPage(data), nil
}
