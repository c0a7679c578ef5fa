package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"luxvision/models"
)

// Collection names.
const (
	colUsers      = "users"
	colCategories = "categories"
	colProducts   = "products"
	colCart       = "cart_items"
	colWishlist   = "wishlist_items"
	colReviews    = "reviews"
	colAddresses  = "addresses"
	colOrders     = "orders"
)

const (
	shortTimeout = 5 * time.Second
	longTimeout  = 10 * time.Second
)

// Store is the MongoDB implementation of services.Store. Multi-document
// transactions require a replica set deployment.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Connect dials uri and returns a store backed by database dbName.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("Connected to MongoDB", zap.String("database", dbName))

	return &Store{client: client, db: client.Database(dbName), log: log}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique indexes the services rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		colUsers:      {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		colCategories: {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique}},
		colProducts: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCart:     {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, Options: unique}},
		colWishlist: {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, Options: unique}},
		colReviews:  {{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: unique}},
		colAddresses: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"is_default": true}),
		}},
		colOrders: {
			{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	s.log.Info("MongoDB indexes ensured")
	return nil
}

// inTx runs fn inside a multi-document transaction.
func (s *Store) inTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	// mongo stores milliseconds
	return time.Now().UTC().Truncate(time.Millisecond)
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var perr *models.Error
	if errors.As(err, &perr) {
		if perr.Op == "" {
			return &models.Error{Code: perr.Code, Msg: perr.Msg, Op: op, Err: perr}
		}
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Error{Code: models.ENotFound, Msg: models.ErrNotFound.Msg, Op: op, Err: err}
	}

	if mongo.IsDuplicateKeyError(err) {
		return &models.Error{Code: models.EConflict, Msg: models.ErrDuplicate.Msg, Op: op, Err: err}
	}

	return &models.Error{Code: models.EInternal, Op: op, Err: err}
}

// findAll decodes every document matched by filter into a fresh slice.
func findAll[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// setIf adds key to set when v is non nil.
func setIf[T any](set bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
	}
}
