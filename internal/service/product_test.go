package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/repository"
)

func TestProductCreate(t *testing.T) {
	owner := uuid.New()
	shop := domain.Shop{ID: uuid.New(), OwnerID: owner}

	valid := CreateProductParams{
		ShopID:    shop.ID,
		Name:      "Galaxy Phone",
		BasePrice: 49900,
		Variants: []CreateVariantInput{
			{Attributes: map[string]string{"Color": "Black", "Storage": "256GB"}, Quantity: 5},
			{Attributes: map[string]string{"Color": "White", "Storage": "256GB"}, Quantity: 3},
		},
	}

	t.Run("upserts variants by canonical slug", func(t *testing.T) {
		store := catalogStore(shop)
		var slugs []string
		store.CreateVariantFn = func(ctx context.Context, arg repository.CreateVariantParams) (domain.Variant, error) {
			slugs = append(slugs, arg.Slug)
			return domain.Variant{ID: uuid.New(), Slug: arg.Slug, Attributes: arg.Attributes}, nil
		}
		var attached []repository.SetProductVariantParams
		store.SetProductVariantFn = func(ctx context.Context, arg repository.SetProductVariantParams) error {
			attached = append(attached, arg)
			return nil
		}

		svc := NewProductService(store, testLogger())
		product, err := svc.Create(asVendor(owner), valid)
		require.NoError(t, err)
		assert.Equal(t, "galaxy-phone", product.Slug)
		require.Len(t, product.Variants, 2)

		require.Len(t, slugs, 2)
		assert.Equal(t, "color-black_storage-256gb", slugs[0])
		assert.Equal(t, "color-white_storage-256gb", slugs[1])
		require.Len(t, attached, 2)
		assert.Equal(t, int32(5), attached[0].Quantity)
	})

	t.Run("non-manager is rejected", func(t *testing.T) {
		svc := NewProductService(catalogStore(shop), testLogger())
		_, err := svc.Create(asUser(uuid.New()), valid)
		require.Error(t, err)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*CreateProductParams)
		}{
			{"empty name", func(p *CreateProductParams) { p.Name = "  " }},
			{"negative price", func(p *CreateProductParams) { p.BasePrice = -1 }},
			{"no variants", func(p *CreateProductParams) { p.Variants = nil }},
			{"variant without attributes", func(p *CreateProductParams) {
				p.Variants = []CreateVariantInput{{Quantity: 1}}
			}},
			{"negative variant quantity", func(p *CreateProductParams) {
				p.Variants = []CreateVariantInput{
					{Attributes: map[string]string{"color": "red"}, Quantity: -1},
				}
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				params := valid
				tc.mutate(&params)

				svc := NewProductService(catalogStore(shop), testLogger())
				_, err := svc.Create(asVendor(owner), params)
				require.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			})
		}
	})
}

func TestProductList(t *testing.T) {
	shop := domain.Shop{ID: uuid.New(), OwnerID: uuid.New()}
	store := catalogStore(shop)

	var got repository.ListProductsParams
	store.ListProductsFn = func(ctx context.Context, arg repository.ListProductsParams) ([]domain.Product, int64, error) {
		got = arg
		return []domain.Product{{Name: "Widget"}}, 41, nil
	}

	svc := NewProductService(store, testLogger())
	products, meta, err := svc.List(context.Background(), ListProductsParams{
		Search: "  widget  ",
		Page:   Page{Page: 2, Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, "widget", got.Search)
	assert.Equal(t, int32(20), got.Limit)
	assert.Equal(t, int32(20), got.Offset)
	assert.Equal(t, int64(41), meta.Total)
	assert.Equal(t, int64(3), meta.TotalPage)
}

func TestProductGetNotFound(t *testing.T) {
	svc := NewProductService(&mockStore{}, testLogger())
	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
