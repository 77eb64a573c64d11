// Package mongodb provides the MongoDB client backing the document catalog.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
)

// Client wraps a mongo.Client bound to one database.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	opts     *Options
}

var _ storage.Client = (*Client)(nil)

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}

	// 嵌套文档解码为 bson.M，FAQ/Terms 可以直接按 JSON 输出
	clientOpts := mongoopts.Client().
		ApplyURI(BuildURI(opts)).
		SetBSONOptions(&mongoopts.BSONOptions{DefaultDocumentM: true})
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(opts.Database),
		opts:     opts,
	}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "mongodb"
}

// Ping checks if the connection to MongoDB is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ConnectTimeout)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil && err != mongo.ErrClientDisconnected {
		return err
	}
	return nil
}

// Collection returns the configured product collection.
func (c *Client) Collection() *mongo.Collection {
	return c.database.Collection(c.opts.Collection)
}

// Database returns the bound database.
func (c *Client) Database() *mongo.Database {
	return c.database
}
