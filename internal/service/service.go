package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"gudangku/backend/internal/cache"
	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/export"
	"gudangku/backend/internal/store"
)

const dayLayout = "2006-01-02"

type Service struct {
	repo       store.Repository
	summaries  cache.DailySummaryCache
	exporter   *export.Exporter
	logger     *zap.Logger
	summaryTTL time.Duration
}

func New(repo store.Repository, summaries cache.DailySummaryCache, exporter *export.Exporter, logger *zap.Logger, summaryTTL time.Duration) *Service {
	if summaries == nil {
		summaries = cache.NoopDailySummaryCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if summaryTTL <= 0 {
		summaryTTL = 30 * time.Second
	}

	return &Service{
		repo:       repo,
		summaries:  summaries,
		exporter:   exporter,
		logger:     logger,
		summaryTTL: summaryTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.TrimSpace(req.SKU)

	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", store.ErrInvalidInput)
	}
	if req.SKU == "" {
		return domain.Product{}, fmt.Errorf("%w: product sku is required", store.ErrInvalidInput)
	}
	if req.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity cannot be negative", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:     req.Name,
		SKU:      req.SKU,
		Quantity: req.Quantity,
		Location: strings.TrimSpace(req.Location),
		Supplier: strings.TrimSpace(req.Supplier),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("product created",
		zap.String("product_id", created.ID),
		zap.String("sku", created.SKU),
		zap.Int("quantity", created.Quantity),
	)
	return *created, nil
}

// SetProductQuantity overwrites the stored quantity with the exact value
// supplied; it is not an adjustment delta.
func (s *Service) SetProductQuantity(ctx context.Context, id string, quantity int) (domain.Product, error) {
	if quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity cannot be negative", store.ErrInvalidInput)
	}

	updated, err := s.repo.SetProductQuantity(ctx, id, quantity)
	if err != nil {
		return domain.Product{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// RecordSale runs the sale-recording saga: validate every line item, then
// decrement stock item by item, persist the sale, and append rows to the
// incremental spreadsheet artifact. Each decrement is an independent atomic
// update; a failure after the first decrement is surfaced to the caller
// without compensating the decrements or the saved sale.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		return domain.Sale{}, fmt.Errorf("%w: channel is required", store.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return domain.Sale{}, fmt.Errorf("%w: sale requires at least one item", store.ErrInvalidInput)
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return domain.Sale{}, fmt.Errorf("%w: item quantity must be greater than zero", store.ErrInvalidInput)
		}
		if !store.ValidID(item.ProductID) {
			return domain.Sale{}, fmt.Errorf("%w: invalid product reference %q", store.ErrInvalidInput, item.ProductID)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Sale{}, err
	}
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return domain.Sale{}, fmt.Errorf("%w: product %s not found", store.ErrInvalidInput, item.ProductID)
		}
		if product.Quantity < item.Quantity {
			return domain.Sale{}, fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
		}
	}

	for _, item := range req.Items {
		if err := s.repo.DecrementProductQuantity(ctx, item.ProductID, item.Quantity); err != nil {
			return domain.Sale{}, err
		}
	}

	date := time.Now().UTC()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}
	items := make([]domain.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.SaleItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		Channel: channel,
		Items:   items,
		Date:    date,
	})
	if err != nil {
		s.logger.Error("sale persist failed after stock decrement",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return domain.Sale{}, fmt.Errorf("save sale: %w", err)
	}

	rows := make([]export.Row, 0, len(created.Items))
	for _, item := range created.Items {
		row := export.Row{Date: created.Date, Channel: created.Channel, Quantity: item.Quantity}
		if product, ok := products[item.ProductID]; ok {
			row.ProductName = product.Name
			row.ProductSKU = product.SKU
		}
		rows = append(rows, row)
	}
	if err := s.exporter.Append(rows); err != nil {
		s.logger.Error("spreadsheet append failed, sale already saved",
			zap.String("sale_id", created.ID),
			zap.Error(err),
		)
		return domain.Sale{}, fmt.Errorf("append sale to spreadsheet: %w", err)
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", created.ID),
		zap.String("channel", created.Channel),
		zap.Int("items", len(created.Items)),
	)
	return *created, nil
}

// ListSalesByChannel returns a channel's sales newest first, optionally
// restricted to an inclusive [start, end] day range, with product name and
// SKU expanded on every line item.
func (s *Service) ListSalesByChannel(ctx context.Context, channel string, start string, end string) ([]domain.Sale, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, fmt.Errorf("%w: channel is required", store.ErrInvalidInput)
	}

	filter := store.SaleFilter{Channel: channel}
	if strings.TrimSpace(start) != "" {
		from, err := parseDay(start)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if strings.TrimSpace(end) != "" {
		day, err := parseDay(end)
		if err != nil {
			return nil, err
		}
		to := day.Add(24 * time.Hour)
		filter.To = &to
	}

	sales, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.expandSaleItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// DailySummary aggregates one calendar day of sales per channel plus overall
// totals. Results are cached briefly so marketplace dashboards polling the
// endpoint do not hammer the store.
func (s *Service) DailySummary(ctx context.Context, date string) (domain.DailySummary, error) {
	day, err := parseDay(date)
	if err != nil {
		return domain.DailySummary{}, err
	}

	key := "summary:" + day.Format(dayLayout)
	if cached, ok, err := s.summaries.Get(ctx, key); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	}

	channels, err := s.repo.GetDailySummary(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return domain.DailySummary{}, err
	}
	if channels == nil {
		channels = []domain.ChannelSummary{}
	}

	summary := domain.DailySummary{
		Date:     day.Format(dayLayout),
		Channels: channels,
	}
	for _, entry := range channels {
		summary.Overall.TotalOrders += entry.TotalOrders
		summary.Overall.TotalQuantity += entry.TotalQuantity
	}

	if err := s.summaries.Set(ctx, key, &summary, s.summaryTTL); err != nil {
		s.logger.Warn("summary cache write failed", zap.Error(err))
	}
	return summary, nil
}

// ArtifactPath returns the incremental artifact's location, or ErrNotFound if
// no sale has ever been recorded.
func (s *Service) ArtifactPath() (string, error) {
	path := s.exporter.ArtifactPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: no sales spreadsheet has been generated yet", store.ErrNotFound)
	} else if err != nil {
		return "", err
	}
	return path, nil
}

// ExportSales rebuilds the full export file from every recorded sale, one row
// per line item.
func (s *Service) ExportSales(ctx context.Context) (domain.ExportResult, error) {
	sales, err := s.repo.ListSales(ctx, store.SaleFilter{})
	if err != nil {
		return domain.ExportResult{}, err
	}
	if len(sales) == 0 {
		return domain.ExportResult{}, fmt.Errorf("%w: no sales to export", store.ErrNotFound)
	}
	if err := s.expandSaleItems(ctx, sales); err != nil {
		return domain.ExportResult{}, err
	}

	rows := make([]export.Row, 0, len(sales))
	for _, sale := range sales {
		for _, item := range sale.Items {
			rows = append(rows, export.Row{
				Date:        sale.Date,
				Channel:     sale.Channel,
				ProductName: item.ProductName,
				ProductSKU:  item.ProductSKU,
				Quantity:    item.Quantity,
			})
		}
	}

	path, err := s.exporter.Rebuild(rows)
	if err != nil {
		return domain.ExportResult{}, err
	}

	s.logger.Info("full sales export written",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return domain.ExportResult{Message: "sales exported", FilePath: path}, nil
}

func (s *Service) expandSaleItems(ctx context.Context, sales []domain.Sale) error {
	seen := map[string]bool{}
	ids := make([]string, 0, len(sales))
	for _, sale := range sales {
		for _, item := range sale.Items {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range sales {
		for j := range sales[i].Items {
			if product, ok := products[sales[i].Items[j].ProductID]; ok {
				sales[i].Items[j].ProductName = product.Name
				sales[i].Items[j].ProductSKU = product.SKU
			}
		}
	}
	return nil
}

func parseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(dayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", store.ErrInvalidInput, value)
	}
	return parsed, nil
}
