package services

import (
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to the product catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetProductsByCategory retrieves all products within a category.
func (s *ProductService) GetProductsByCategory(category string) ([]models.Product, error) {
	return s.repo.GetByCategory(category)
}

// SearchProducts retrieves products matching a free-text query.
func (s *ProductService) SearchProducts(query string) ([]models.Product, error) {
	return s.repo.Search(query)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
