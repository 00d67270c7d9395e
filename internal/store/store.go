package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gudangku/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SaleFilter narrows a sale listing. From is inclusive, To exclusive; a nil
// bound leaves that side open.
type SaleFilter struct {
	Channel string
	From    *time.Time
	To      *time.Time
}

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	SetProductQuantity(ctx context.Context, id string, quantity int) (*domain.Product, error)
	// DecrementProductQuantity applies a single conditional atomic decrement:
	// it only succeeds while the stored quantity is at least qty.
	DecrementProductQuantity(ctx context.Context, id string, qty int) error
	// DeleteProduct removes the record if present and reports success either way.
	DeleteProduct(ctx context.Context, id string) error

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	// ListSales returns matching sales sorted by date descending.
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	// GetDailySummary groups sales with date in [from, to) by channel,
	// summing line-item quantities and counting sale documents per channel,
	// channels sorted by name ascending.
	GetDailySummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ChannelSummary, error)
}

// ValidID reports whether id is a syntactically valid object id. Both store
// implementations issue ObjectID hex strings, so this holds across backends.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// NewID issues a fresh object id in hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
