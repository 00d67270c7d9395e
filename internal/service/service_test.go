package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/export"
	"gudangku/backend/internal/store"
	"gudangku/backend/internal/store/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	exporter, err := export.New(t.TempDir())
	if err != nil {
		t.Fatalf("exporter init: %v", err)
	}
	return New(memory.New(), nil, exporter, nil, 0)
}

func mustCreateProduct(t *testing.T, svc *Service, req domain.ProductCreateRequest) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), req)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func productQuantity(t *testing.T, svc *Service, id string) int {
	t.Helper()
	products, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, p := range products {
		if p.ID == id {
			return p.Quantity
		}
	}
	t.Fatalf("product %s not found", id)
	return 0
}

func TestCreateProductDefaultsQuantityToZero(t *testing.T) {
	svc := newTestService(t)

	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{
		Name: "Kaos Polos Hitam L",
		SKU:  "KPH-L",
	})
	if product.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", product.Quantity)
	}
	if product.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestCreateProductRejectsMissingName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{SKU: "KPH-L"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateProductRejectsNegativeQuantity(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		Name:     "Topi Baseball",
		SKU:      "TP-BB",
		Quantity: -3,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSetProductQuantityOverwritesExactValue(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Hoodie Abu XL", SKU: "HD-ABU-XL", Quantity: 12})

	updated, err := svc.SetProductQuantity(context.Background(), product.ID, 5)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if updated.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", updated.Quantity)
	}
}

func TestSetProductQuantityUnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetProductQuantity(context.Background(), store.NewID(), 5)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteProductSucceedsWithoutExistenceCheck(t *testing.T) {
	svc := newTestService(t)

	if err := svc.DeleteProduct(context.Background(), store.NewID()); err != nil {
		t.Fatalf("expected delete of unknown id to succeed, got %v", err)
	}
}

func TestRecordSaleRejectsEmptyItemList(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Kaos Polos Putih M", SKU: "KPP-M", Quantity: 10})

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{Channel: "tokopedia"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 10 {
		t.Fatalf("stock mutated by rejected sale: %d", got)
	}
}

func TestRecordSaleRejectsMalformedProductReference(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "shopee",
		Items:   []domain.SaleItem{{ProductID: "not-an-object-id", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecordSaleRejectsUnknownProduct(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "shopee",
		Items:   []domain.SaleItem{{ProductID: store.NewID(), Quantity: 1}},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecordSaleRejectsInsufficientStock(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Topi Baseball", SKU: "TP-BB", Quantity: 2})

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "tokopedia",
		Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: 3}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 2 {
		t.Fatalf("stock mutated by rejected sale: %d", got)
	}
}

func TestRecordSaleDecrementsStockAndPersistsSale(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Kaos Polos Hitam L", SKU: "KPH-L", Quantity: 10})

	sale, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "tokopedia",
		Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.ID == "" {
		t.Fatalf("expected generated sale id")
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 3 {
		t.Fatalf("unexpected sale items: %+v", sale.Items)
	}
	if got := productQuantity(t, svc, product.ID); got != 7 {
		t.Fatalf("expected quantity 7 after sale, got %d", got)
	}

	sales, err := svc.ListSalesByChannel(context.Background(), "tokopedia", "", "")
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("expected exactly one sale record, got %d", len(sales))
	}
	if sales[0].Items[0].ProductName != "Kaos Polos Hitam L" || sales[0].Items[0].ProductSKU != "KPH-L" {
		t.Fatalf("expected expanded product details, got %+v", sales[0].Items[0])
	}
}

func TestRecordSaleCreatesIncrementalArtifact(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Hoodie Abu XL", SKU: "HD-ABU-XL", Quantity: 4})

	if _, err := svc.ArtifactPath(); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found before first sale, got %v", err)
	}

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "shopee",
		Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	path, err := svc.ArtifactPath()
	if err != nil {
		t.Fatalf("artifact path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}
}

func TestListSalesByChannelOrdersNewestFirstAndFiltersByDay(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Kaos Polos Putih M", SKU: "KPP-M", Quantity: 20})

	older := time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)
	newer := time.Date(2024, 3, 6, 15, 0, 0, 0, time.Local)
	for _, date := range []time.Time{older, newer} {
		d := date
		_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
			Channel: "tokopedia",
			Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: 1}},
			Date:    &d,
		})
		if err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}

	sales, err := svc.ListSalesByChannel(context.Background(), "tokopedia", "", "")
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 || !sales[0].Date.After(sales[1].Date) {
		t.Fatalf("expected newest first, got %+v", sales)
	}

	filtered, err := svc.ListSalesByChannel(context.Background(), "tokopedia", "2024-03-06", "2024-03-06")
	if err != nil {
		t.Fatalf("list sales filtered: %v", err)
	}
	if len(filtered) != 1 || !filtered[0].Date.Equal(newer) {
		t.Fatalf("expected only the newer sale, got %+v", filtered)
	}
}

func TestListSalesByChannelRejectsBadDate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListSalesByChannel(context.Background(), "tokopedia", "06-03-2024", "")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDailySummaryRejectsBadDate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.DailySummary(context.Background(), "yesterday")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDailySummaryEmptyDayHasZeroTotals(t *testing.T) {
	svc := newTestService(t)

	summary, err := svc.DailySummary(context.Background(), "2024-03-05")
	if err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if summary.Overall.TotalOrders != 0 || summary.Overall.TotalQuantity != 0 {
		t.Fatalf("expected zero overall totals, got %+v", summary.Overall)
	}
	if len(summary.Channels) != 0 {
		t.Fatalf("expected empty channel breakdown, got %+v", summary.Channels)
	}
}

func TestDailySummaryGroupsByChannelSortedAscending(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Kaos Polos Hitam L", SKU: "KPH-L", Quantity: 50})

	day := time.Date(2024, 3, 5, 11, 0, 0, 0, time.Local)
	for _, sale := range []struct {
		channel string
		qty     int
	}{
		{"B", 5},
		{"A", 2},
	} {
		d := day
		_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
			Channel: sale.channel,
			Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: sale.qty}},
			Date:    &d,
		})
		if err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}

	summary, err := svc.DailySummary(context.Background(), "2024-03-05")
	if err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if len(summary.Channels) != 2 {
		t.Fatalf("expected two channels, got %+v", summary.Channels)
	}
	if summary.Channels[0].Channel != "A" || summary.Channels[0].TotalQuantity != 2 || summary.Channels[0].TotalOrders != 1 {
		t.Fatalf("unexpected first channel: %+v", summary.Channels[0])
	}
	if summary.Channels[1].Channel != "B" || summary.Channels[1].TotalQuantity != 5 || summary.Channels[1].TotalOrders != 1 {
		t.Fatalf("unexpected second channel: %+v", summary.Channels[1])
	}
	if summary.Overall.TotalOrders != 2 || summary.Overall.TotalQuantity != 7 {
		t.Fatalf("unexpected overall totals: %+v", summary.Overall)
	}
}

func TestExportSalesWithZeroSalesIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ExportSales(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, statErr := os.Stat(svc.exporter.ExportPath()); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no export file to be written")
	}
}

func TestExportSalesWritesFreshFile(t *testing.T) {
	svc := newTestService(t)
	product := mustCreateProduct(t, svc, domain.ProductCreateRequest{Name: "Topi Baseball", SKU: "TP-BB", Quantity: 8})

	_, err := svc.RecordSale(context.Background(), domain.SaleCreateRequest{
		Channel: "lazada",
		Items:   []domain.SaleItem{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	result, err := svc.ExportSales(context.Background())
	if err != nil {
		t.Fatalf("export sales: %v", err)
	}
	if result.FilePath == "" {
		t.Fatalf("expected file path in export result")
	}
	if _, err := os.Stat(result.FilePath); err != nil {
		t.Fatalf("expected export file on disk: %v", err)
	}
}
