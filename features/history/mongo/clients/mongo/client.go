// Package mongo implements the low-level MongoDB client used by the history
// store. Messages are stored one document per message with the canonical
// JSON payload kept verbatim, so the part unions round-trip through their
// own codecs rather than through BSON.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"goa.design/clue/health"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

const (
	defaultCollection = "thread_messages"
	defaultTimeout    = 5 * time.Second
	clientName        = "history-mongo"
)

// Client exposes Mongo-backed operations for thread message history.
type Client interface {
	health.Pinger

	LoadThread(ctx context.Context, threadID string) ([]*messages.MessageV2, error)
	UpsertMessages(ctx context.Context, msgs []*messages.MessageV2) error
}

// Options configures the Mongo client implementation.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

type client struct {
	mongo   *mongodriver.Client
	coll    collection
	timeout time.Duration
}

// New returns a Client backed by the provided MongoDB client.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	mcoll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, err
	}
	return newClientWithCollection(opts.Client, wrapper, timeout)
}

func (c *client) Name() string {
	return clientName
}

func (c *client) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) LoadThread(ctx context.Context, threadID string) ([]*messages.MessageV2, error) {
	if threadID == "" {
		return nil, errors.New("thread id is required")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"thread_id": threadID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*messages.MessageV2
	for cur.Next(ctx) {
		var doc messageDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		msg, err := doc.toMessage()
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) UpsertMessages(ctx context.Context, msgs []*messages.MessageV2) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	for _, msg := range msgs {
		doc, err := toDocument(msg)
		if err != nil {
			return err
		}
		filter := bson.M{"_id": doc.ID}
		update := bson.M{"$set": doc}
		if _, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

type messageDocument struct {
	ID         string    `bson:"_id"`
	ThreadID   string    `bson:"thread_id"`
	ResourceID string    `bson:"resource_id,omitempty"`
	Role       string    `bson:"role"`
	CreatedAt  time.Time `bson:"created_at"`
	// Payload is the canonical JSON encoding of the full message.
	Payload string `bson:"payload"`
}

func toDocument(msg *messages.MessageV2) (messageDocument, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return messageDocument{}, fmt.Errorf("encode message %s: %w", msg.ID, err)
	}
	return messageDocument{
		ID:         msg.ID,
		ThreadID:   msg.ThreadID,
		ResourceID: msg.ResourceID,
		Role:       string(msg.Role),
		CreatedAt:  msg.CreatedAt.UTC(),
		Payload:    string(payload),
	}, nil
}

func (d messageDocument) toMessage() (*messages.MessageV2, error) {
	var msg messages.MessageV2
	if err := json.Unmarshal([]byte(d.Payload), &msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", d.ID, err)
	}
	return &msg, nil
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "created_at", Value: 1}},
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

func newClientWithCollection(mongoClient *mongodriver.Client, coll collection, timeout time.Duration) (*client, error) {
	if coll == nil {
		return nil, errors.New("collection is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		mongo:   mongoClient,
		coll:    coll,
		timeout: timeout,
	}, nil
}

type collection interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
