package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecoscan/backend/internal/domain"
)

// maxSearchResults caps the number of documents returned by Search.
const maxSearchResults = 100

// productDoc is the MongoDB shape of a product record. The _id is omitted
// from $set updates (omitempty on the zero ObjectID), so the store-assigned
// id survives repeat upserts.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Barcode     string             `bson:"barcode"`
	Name        string             `bson:"name"`
	Brand       string             `bson:"brand"`
	Category    string             `bson:"category"`
	Ingredients []string           `bson:"ingredients"`
	Nutriments  nutrimentsDoc      `bson:"nutriments"`
	Allergens   []string           `bson:"allergens"`
	Eco         ecoDoc             `bson:"eco"`
	FetchedAt   time.Time          `bson:"fetched_at"`
}

type nutrimentsDoc struct {
	Calories *float64 `bson:"calories"`
	Fat      *float64 `bson:"fat"`
	Sugar    *float64 `bson:"sugar"`
	Sodium   *float64 `bson:"sodium"`
}

type ecoDoc struct {
	EcoScore            *int     `bson:"eco_score"`
	CarbonFootprint     *float64 `bson:"carbon_footprint"`
	PackagingRecyclable bool     `bson:"packaging_recyclable"`
}

// MongoStore is the production ProductStore backed by a single MongoDB
// collection. Expiry is enforced by Mongo's TTL monitor on the fetched_at
// index, which runs in the background; a document may therefore be returned
// slightly past its nominal expiry.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	ttl    time.Duration
}

// NewMongoStore connects to MongoDB and ensures the barcode uniqueness and
// fetched_at TTL indexes exist.
func NewMongoStore(ctx context.Context, uri, database, collection string, ttl time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
		ttl:    ttl,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// ensureIndexes creates the unique barcode index that makes upsert
// well-defined and the TTL index that expires documents once fetched_at plus
// the retention window has elapsed.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "fetched_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Get retrieves the live document for a barcode. Absence is the sole
// staleness signal; Get performs no expiry check of its own.
func (s *MongoStore) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	var doc productDoc
	err := s.coll.FindOne(ctx, bson.M{"barcode": barcode}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotInStore
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return fromDoc(&doc), nil
}

// UpsertOne replaces the document for p.Barcode (full field replacement) and
// re-reads it to return the canonical stored form.
func (s *MongoStore) UpsertOne(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	doc := toDoc(p, time.Now().UTC())

	_, err := s.coll.UpdateOne(
		ctx,
		bson.M{"barcode": p.Barcode},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return s.Get(ctx, p.Barcode)
}

// UpsertMany consolidates the upserts into one unordered bulk write, so one
// document's failure does not prevent the others from being attempted.
func (s *MongoStore) UpsertMany(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"barcode": p.Barcode}).
			SetUpdate(bson.M{"$set": toDoc(p, now)}).
			SetUpsert(true))
	}

	_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns live documents whose name matches q, case-insensitively,
// capped at 100 results.
func (s *MongoStore) Search(ctx context.Context, q string) ([]*domain.Product, error) {
	filter := bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(maxSearchResults))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var results []*domain.Product
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		results = append(results, fromDoc(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return results, nil
}

// toDoc converts a domain record into its stored shape, stamping the
// persistence timestamp. The zero ID keeps _id out of the $set document.
func toDoc(p *domain.Product, fetchedAt time.Time) productDoc {
	return productDoc{
		Barcode:     p.Barcode,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Ingredients: p.Ingredients,
		Nutriments: nutrimentsDoc{
			Calories: p.Nutriments.Calories,
			Fat:      p.Nutriments.Fat,
			Sugar:    p.Nutriments.Sugar,
			Sodium:   p.Nutriments.Sodium,
		},
		Allergens: p.Allergens,
		Eco: ecoDoc{
			EcoScore:            p.Eco.EcoScore,
			CarbonFootprint:     p.Eco.CarbonFootprint,
			PackagingRecyclable: p.Eco.PackagingRecyclable,
		},
		FetchedAt: fetchedAt,
	}
}

// fromDoc converts a stored document back into the domain record, surfacing
// the ObjectID as an opaque string.
func fromDoc(doc *productDoc) *domain.Product {
	id := ""
	if !doc.ID.IsZero() {
		id = doc.ID.Hex()
	}

	return &domain.Product{
		ID:          id,
		Barcode:     doc.Barcode,
		Name:        doc.Name,
		Brand:       doc.Brand,
		Category:    doc.Category,
		Ingredients: doc.Ingredients,
		Nutriments: domain.Nutriments{
			Calories: doc.Nutriments.Calories,
			Fat:      doc.Nutriments.Fat,
			Sugar:    doc.Nutriments.Sugar,
			Sodium:   doc.Nutriments.Sodium,
		},
		Allergens: doc.Allergens,
		Eco: domain.EcoInfo{
			EcoScore:            doc.Eco.EcoScore,
			CarbonFootprint:     doc.Eco.CarbonFootprint,
			PackagingRecyclable: doc.Eco.PackagingRecyclable,
		},
		FetchedAt: doc.FetchedAt,
	}
}
