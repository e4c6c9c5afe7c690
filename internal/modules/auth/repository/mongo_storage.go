package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 10 * time.Second

type sessionDocument struct {
	Phone     string    `bson:"phone"`
	Blob      []byte    `bson:"blob"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStorage implements Repository with one document per phone number
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
	phone  string
}

// NewMongoStorage connects to uri and stores sessions in db.sessions
func NewMongoStorage(ctx context.Context, uri, db, phone string) (Repository, error) {
	mctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(mctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.With("db", db, "context", "failed to connect to mongo").Wrap(err)
	}
	if err := client.Ping(mctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, oops.With("db", db, "context", "failed to ping mongo").Wrap(err)
	}

	return &MongoStorage{
		client: client,
		coll:   client.Database(db).Collection("sessions"),
		phone:  phone,
	}, nil
}

func (s *MongoStorage) Load(ctx context.Context) ([]byte, error) {
	mctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res := s.coll.FindOne(mctx, bson.D{{Key: "phone", Value: s.phone}})
	if res.Err() == mongo.ErrNoDocuments {
		return nil, errors.ErrSessionNotFound
	} else if res.Err() != nil {
		return nil, oops.With("phone", s.phone, "context", "failed to load session").Wrap(res.Err())
	}

	var doc sessionDocument
	if err := res.Decode(&doc); err != nil {
		return nil, oops.With("phone", s.phone, "context", "failed to decode session").Wrap(err)
	}
	if len(doc.Blob) == 0 {
		return nil, errors.ErrSessionNotFound
	}

	return doc.Blob, nil
}

func (s *MongoStorage) Save(ctx context.Context, blob []byte) error {
	mctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	doc := sessionDocument{Phone: s.phone, Blob: blob, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.UpdateOne(mctx,
		bson.D{{Key: "phone", Value: s.phone}},
		bson.D{{Key: "$set", Value: doc}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return oops.With("phone", s.phone, "context", "failed to save session").Wrap(err)
	}
	return nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
