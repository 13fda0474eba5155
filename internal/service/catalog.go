package service

import (
	"context"
	"errors"
	"fmt"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/repository"

	"go.uber.org/zap"
)

// PackagePatch holds the package fields to change. Nil fields are kept.
type PackagePatch struct {
	Name         *string
	AecoinAmount *int64
	Price        *int64
	BonusLabel   *string
	Active       *bool
	SortOrder    *int
}

// CatalogService manages the AECOIN packages on sale.
type CatalogService struct {
	packages repository.PackageStore
	logger   *zap.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(packages repository.PackageStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{packages: packages, logger: logger.Named("catalog")}
}

// List returns packages by sort order. activeOnly hides withdrawn packages.
func (s *CatalogService) List(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	return s.packages.List(ctx, activeOnly)
}

// Get returns one package.
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Package, error) {
	p, err := s.packages.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPackageNotFound
	}
	return p, err
}

// Create adds a package.
func (s *CatalogService) Create(ctx context.Context, p *model.Package) error {
	if err := validatePackage(p); err != nil {
		return err
	}
	if err := s.packages.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info("package created", zap.Int64("package_id", p.ID), zap.String("name", p.Name))
	return nil
}

// Update applies patch to a package and returns the result.
func (s *CatalogService) Update(ctx context.Context, id int64, patch PackagePatch) (*model.Package, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.AecoinAmount != nil {
		p.AecoinAmount = *patch.AecoinAmount
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.BonusLabel != nil {
		p.BonusLabel = *patch.BonusLabel
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.SortOrder != nil {
		p.SortOrder = *patch.SortOrder
	}

	if err := validatePackage(p); err != nil {
		return nil, err
	}
	if err := s.packages.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a package.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	err := s.packages.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPackageNotFound
	}
	return err
}

func validatePackage(p *model.Package) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.AecoinAmount <= 0:
		return fmt.Errorf("%w: aecoin amount must be positive", ErrInvalidInput)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}
