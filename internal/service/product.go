package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/repository"
)

// ProductService manages the catalog.
type ProductService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, params ListProductsParams) ([]domain.Product, *PageMeta, error)

	// Create registers a product with its variants. Variants are
	// deduplicated across the whole catalog by attribute slug.
	Create(ctx context.Context, params CreateProductParams) (*domain.Product, error)
}

// ListProductsParams filters the catalog listing.
type ListProductsParams struct {
	ShopID *uuid.UUID
	Search string
	Page   Page
}

// CreateProductParams contains parameters for creating a product.
type CreateProductParams struct {
	ShopID      uuid.UUID
	Name        string
	Description string
	BasePrice   int64
	Variants    []CreateVariantInput
}

// CreateVariantInput describes one variant of a new product.
type CreateVariantInput struct {
	Attributes map[string]string
	Quantity   int32
	Price      *int64
}

type productService struct {
	store  repository.Store
	logger *slog.Logger
}

var _ ProductService = (*productService)(nil)

func NewProductService(store repository.Store, logger *slog.Logger) ProductService {
	return &productService{store: store, logger: logger}
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const op = "product.Get"

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "product", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}
	return &product, nil
}

func (s *productService) List(ctx context.Context, params ListProductsParams) ([]domain.Product, *PageMeta, error) {
	const op = "product.List"

	page := params.Page.normalize()
	products, total, err := s.store.ListProducts(ctx, repository.ListProductsParams{
		ShopID: params.ShopID,
		Search: strings.TrimSpace(params.Search),
		Limit:  page.Limit,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to list products")
	}
	return products, page.meta(total), nil
}

func (s *productService) Create(ctx context.Context, params CreateProductParams) (*domain.Product, error) {
	const op = "product.Create"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	shop, err := s.store.GetShop(ctx, params.ShopID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", params.ShopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, domain.Invalid(op, "product name is required")
	}
	if params.BasePrice < 0 {
		return nil, domain.Invalid(op, "base price cannot be negative")
	}
	if len(params.Variants) == 0 {
		return nil, domain.Invalid(op, "product requires at least one variant")
	}
	for _, v := range params.Variants {
		if len(v.Attributes) == 0 {
			return nil, domain.Invalid(op, "variant attributes are required")
		}
		if v.Quantity < 0 {
			return nil, domain.Invalid(op, "variant quantity cannot be negative")
		}
	}

	var product domain.Product
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		created, err := q.CreateProduct(ctx, repository.CreateProductParams{
			ShopID:      params.ShopID,
			Name:        params.Name,
			Slug:        productSlug(params.Name),
			Description: params.Description,
			BasePrice:   params.BasePrice,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create product")
		}

		for _, input := range params.Variants {
			// Identical attribute sets resolve to the same shared row.
			variant, err := q.CreateVariant(ctx, repository.CreateVariantParams{
				Slug:       domain.VariantSlug(input.Attributes),
				Attributes: input.Attributes,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to upsert variant")
			}

			err = q.SetProductVariant(ctx, repository.SetProductVariantParams{
				ProductID: created.ID,
				VariantID: variant.ID,
				Quantity:  input.Quantity,
				Price:     input.Price,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to attach variant")
			}

			v := variant
			created.Variants = append(created.Variants, domain.VariantDetail{
				ProductID: created.ID,
				VariantID: variant.ID,
				Quantity:  input.Quantity,
				Price:     input.Price,
				Variant:   &v,
			})
		}

		product = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		slog.String("product_id", product.ID.String()),
		slog.String("shop_id", product.ShopID.String()),
		slog.String("name", product.Name))

	return &product, nil
}

func productSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
