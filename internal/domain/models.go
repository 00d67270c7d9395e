package domain

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location"`
	Supplier  string    `json:"supplier"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductCreateRequest struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
	Supplier string `json:"supplier"`
}

type ProductQuantityUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// SaleItem is one line item within a sale. ProductName and ProductSKU are
// display fields filled in when a sale is read back, never persisted.
type SaleItem struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	ProductName string `json:"productName,omitempty"`
	ProductSKU  string `json:"productSku,omitempty"`
}

type Sale struct {
	ID        string     `json:"id"`
	Channel   string     `json:"channel"`
	Items     []SaleItem `json:"items"`
	Date      time.Time  `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
}

type SaleCreateRequest struct {
	Channel string     `json:"channel"`
	Items   []SaleItem `json:"items"`
	Date    *time.Time `json:"date,omitempty"`
}

type SummaryTotals struct {
	TotalOrders   int64 `json:"totalOrders"`
	TotalQuantity int64 `json:"totalQuantity"`
}

type ChannelSummary struct {
	Channel       string `json:"channel"`
	TotalOrders   int64  `json:"totalOrders"`
	TotalQuantity int64  `json:"totalQuantity"`
}

// DailySummary aggregates one calendar day of sales. Orders count sale
// documents, not line items.
type DailySummary struct {
	Date     string           `json:"date"`
	Channels []ChannelSummary `json:"channels"`
	Overall  SummaryTotals    `json:"overall"`
}

type ExportResult struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}
