package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/store"
)

// Store is the MongoDB-backed store.Repository.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	sales    *mongo.Collection
}

func New(ctx context.Context, uri string, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:   client,
		products: db.Collection("products"),
		sales:    db.Collection("sales"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the sale listing index. Failures are safe to ignore
// at startup; queries still work unindexed.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.sales.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "channel", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

type productDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	SKU       string             `bson:"sku"`
	Quantity  int                `bson:"quantity"`
	Location  string             `bson:"location"`
	Supplier  string             `bson:"supplier"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d productDoc) toDomain() domain.Product {
	return domain.Product{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		SKU:       d.SKU,
		Quantity:  d.Quantity,
		Location:  d.Location,
		Supplier:  d.Supplier,
		CreatedAt: d.CreatedAt,
	}
}

type saleItemDoc struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Quantity  int                `bson:"quantity"`
}

type saleDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Channel   string             `bson:"channel"`
	Items     []saleItemDoc      `bson:"items"`
	Date      time.Time          `bson:"date"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d saleDoc) toDomain() domain.Sale {
	items := make([]domain.SaleItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.SaleItem{
			ProductID: item.ProductID.Hex(),
			Quantity:  item.Quantity,
		})
	}
	return domain.Sale{
		ID:        d.ID.Hex(),
		Channel:   d.Channel,
		Items:     items,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
	}
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cursor, err := s.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]domain.Product, 0, 64)
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		products = append(products, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	doc := productDoc{
		Name:      product.Name,
		SKU:       product.SKU,
		Quantity:  product.Quantity,
		Location:  product.Location,
		Supplier:  product.Supplier,
		CreatedAt: time.Now().UTC(),
	}
	result, err := s.products.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = result.InsertedID.(primitive.ObjectID)
	created := doc.toDomain()
	return &created, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	found := make(map[string]domain.Product, len(ids))
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		found[doc.ID.Hex()] = doc.toDomain()
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Store) SetProductQuantity(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc productDoc
	err = s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"quantity": quantity}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	updated := doc.toDomain()
	return &updated, nil
}

func (s *Store) DecrementProductQuantity(ctx context.Context, id string, qty int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	result, err := s.products.UpdateOne(ctx,
		bson.M{"_id": oid, "quantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"quantity": -qty}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 1 {
		return nil
	}

	// Distinguish a missing product from one that ran out of stock.
	var doc productDoc
	err = s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", store.ErrInsufficientStock, doc.Name)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = s.products.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	items := make([]saleItemDoc, 0, len(sale.Items))
	for _, item := range sale.Items {
		oid, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product reference %q", store.ErrInvalidInput, item.ProductID)
		}
		items = append(items, saleItemDoc{ProductID: oid, Quantity: item.Quantity})
	}

	doc := saleDoc{
		Channel:   sale.Channel,
		Items:     items,
		Date:      sale.Date,
		CreatedAt: time.Now().UTC(),
	}
	if doc.Date.IsZero() {
		doc.Date = doc.CreatedAt
	}

	result, err := s.sales.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = result.InsertedID.(primitive.ObjectID)
	created := doc.toDomain()
	return &created, nil
}

func (s *Store) ListSales(ctx context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	query := bson.M{}
	if filter.Channel != "" {
		query["channel"] = filter.Channel
	}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = *filter.From
	}
	if filter.To != nil {
		dateRange["$lt"] = *filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	cursor, err := s.sales.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sales := make([]domain.Sale, 0, 64)
	for cursor.Next(ctx) {
		var doc saleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		sales = append(sales, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) GetDailySummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ChannelSummary, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": from, "$lt": to}}}},
		bson.D{{Key: "$unwind", Value: "$items"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":           "$channel",
			"totalQuantity": bson.M{"$sum": "$items.quantity"},
			"orders":        bson.M{"$addToSet": "$_id"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"channel":       "$_id",
			"totalQuantity": 1,
			"totalOrders":   bson.M{"$size": "$orders"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"channel": 1}}},
	}

	cursor, err := s.sales.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	channels := make([]domain.ChannelSummary, 0, 8)
	for cursor.Next(ctx) {
		var row struct {
			Channel       string `bson:"channel"`
			TotalQuantity int64  `bson:"totalQuantity"`
			TotalOrders   int64  `bson:"totalOrders"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		channels = append(channels, domain.ChannelSummary{
			Channel:       row.Channel,
			TotalOrders:   row.TotalOrders,
			TotalQuantity: row.TotalQuantity,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}
