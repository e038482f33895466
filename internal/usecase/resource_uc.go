// File: internal/usecase/resource_uc.go
package usecase

import (
	"fmt"

	"github.com/rs/zerolog"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/infra/signer"
)

// Compile-time check
var _ ResourceUseCase = (*resourceUC)(nil)

type ResourceUseCase interface {
	// Resolve verifies the bearer token and returns the product's resource
	// catalog plus an upsell link. Each resource's expiry mirrors the
	// token's: access is governed entirely by token validity.
	Resolve(token, email string, sku model.ProductSKU) ([]model.Resource, string, error)
}

type resourceUC struct {
	catalog model.Catalog
	signer  *signer.Signer
	log     *zerolog.Logger
}

func NewResourceUseCase(catalog model.Catalog, sg *signer.Signer, logger *zerolog.Logger) *resourceUC {
	return &resourceUC{catalog: catalog, signer: sg, log: logger}
}

func (u *resourceUC) Resolve(token, email string, sku model.ProductSKU) ([]model.Resource, string, error) {
	if sku == "" {
		sku = model.ProductWorkshop
	}
	product, ok := u.catalog.BySKU(sku)
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown product %q", domain.ErrInvalidArgument, sku)
	}

	valid, expiresAt := u.signer.VerifyToken(token, email)
	if !valid {
		// Expected adversarial/lost-context traffic; nothing is leaked and
		// nothing is logged as an error.
		return nil, "", domain.ErrUnauthorized
	}

	resources := make([]model.Resource, len(product.Resources))
	for i, r := range product.Resources {
		r.ExpiresAt = expiresAt
		resources[i] = r
	}
	return resources, product.UpsellURL, nil
}
