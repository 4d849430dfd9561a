package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps blogs in a MongoDB collection. Ids are ObjectID hex strings.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type blogDocument struct {
	ID      bson.ObjectID `bson:"_id,omitempty"`
	Title   string        `bson:"title"`
	Snippet string        `bson:"snippet"`
	Body    string        `bson:"body"`
}

func (d blogDocument) blog() Blog {
	return Blog{ID: d.ID.Hex(), Title: d.Title, Snippet: d.Snippet, Body: d.Body}
}

// NewMongo connects to uri and uses the "blogs" collection of database.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("blogs"),
	}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, id string) (Blog, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Blog{}, ErrNotFound
	}
	var doc blogDocument
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Blog{}, ErrNotFound
	}
	if err != nil {
		return Blog{}, fmt.Errorf("store: find %s: %w", id, err)
	}
	return doc.blog(), nil
}

func (s *MongoStore) List(ctx context.Context) ([]Blog, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var docs []blogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	blogs := make([]Blog, 0, len(docs))
	for _, d := range docs {
		blogs = append(blogs, d.blog())
	}
	return blogs, nil
}

func (s *MongoStore) Insert(ctx context.Context, b Blog) (Blog, error) {
	doc := blogDocument{
		ID:      bson.NewObjectID(),
		Title:   b.Title,
		Snippet: b.Snippet,
		Body:    b.Body,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return Blog{}, fmt.Errorf("store: insert: %w", err)
	}
	return doc.blog(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
