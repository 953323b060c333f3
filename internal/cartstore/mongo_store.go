package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

// cartDoc is the MongoDB document shape. Prices are stored as strings so
// they survive the round trip without float drift.
type cartDoc struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"user_id,omitempty"`
	Items     []lineDoc  `bson:"items"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

type lineDoc struct {
	ProductID          int64     `bson:"product_id"`
	Price              string    `bson:"price"`
	Quantity           int       `bson:"quantity"`
	SelectedAttributes string    `bson:"selected_attributes,omitempty"`
	AddedAt            time.Time `bson:"added_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toDoc(cart *domain.Cart) *cartDoc {
	doc := &cartDoc{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]lineDoc, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
		ExpiresAt: cart.ExpiresAt,
	}
	for _, item := range cart.Items {
		doc.Items = append(doc.Items, lineDoc{
			ProductID:          item.ProductID,
			Price:              item.Price.String(),
			Quantity:           item.Quantity,
			SelectedAttributes: item.SelectedAttributes,
			AddedAt:            item.AddedAt,
			UpdatedAt:          item.UpdatedAt,
		})
	}
	return doc
}

func fromDoc(doc *cartDoc) (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Items:     make([]domain.CartLine, 0, len(doc.Items)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
	for _, item := range doc.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("price[%s] is not valid: %w", item.Price, err)
		}
		cart.Items = append(cart.Items, domain.CartLine{
			ProductID:          item.ProductID,
			Price:              price,
			Quantity:           item.Quantity,
			SelectedAttributes: item.SelectedAttributes,
			AddedAt:            item.AddedAt,
			UpdatedAt:          item.UpdatedAt,
		})
	}
	return cart, nil
}

type MongoStore struct {
	collection *mongo.Collection
	retention  time.Duration
}

func NewMongoStore(db *mongo.Database, retention time.Duration) *MongoStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MongoStore{
		collection: db.Collection("carts"),
		retention:  retention,
	}
}

func (m *MongoStore) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	var doc cartDoc

	filter := bson.M{"_id": cartID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	cart, err := fromDoc(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	// Expiration is decided against the live clock, never a stored flag.
	if cart.ExpiredAt(time.Now()) {
		if _, err := m.collection.DeleteOne(ctx, filter); err != nil {
			return nil, fmt.Errorf("failed to clean up expired cart: %w", err)
		}
		return nil, ErrCartExpired
	}

	return cart, nil
}

func (m *MongoStore) GetLiveByOwner(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrCartNotFound
	}

	// The expiry cutoff is part of the query itself, so an expired cart
	// can never surface as live.
	filter := bson.M{
		"user_id": userID,
		"$or": []bson.M{
			{"expires_at": bson.M{"$exists": false}},
			{"expires_at": nil},
			{"expires_at": bson.M{"$gte": time.Now()}},
		},
	}

	var doc cartDoc
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart by owner: %w", err)
	}

	cart, err := fromDoc(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, nil
}

func (m *MongoStore) Create(ctx context.Context, cartID, userID string) (*domain.Cart, error) {
	now := time.Now()
	expires := now.Add(m.retention)

	cart := &domain.Cart{
		ID:        cartID,
		UserID:    userID,
		Items:     []domain.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: &expires,
	}

	if _, err := m.collection.InsertOne(ctx, toDoc(cart)); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return cart, nil
}

func (m *MongoStore) Upsert(ctx context.Context, cart *domain.Cart) error {
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now()
	}

	filter := bson.M{"_id": cart.ID}
	update := bson.M{"$set": toDoc(cart)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m *MongoStore) Delete(ctx context.Context, cartID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": cartID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// CreateIndexes sets up the owner lookup and the TTL sweep that purges
// carts server-side once their expiration matures.
func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
