// Package db stores the narrator's memory bank in SurrealDB over an
// auto-reconnecting websocket connection.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

func init() {
	// Websocket upgrades fail when wss negotiates HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Auth levels accepted in Config.AuthLevel.
const (
	AuthRoot     = "root"
	AuthDatabase = "database"
)

const (
	dialTimeout  = 5 * time.Second
	closeTimeout = 5 * time.Second
)

// Config holds the SurrealDB connection settings for the memory bank.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string
}

func (c Config) auth() surrealdb.Auth {
	if c.AuthLevel == AuthDatabase {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

// Client is a store.Bank backed by SurrealDB.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	logger *slog.Logger
}

// NewClient connects, signs in and selects the memory bank database. The
// connection redials with exponential backoff when the server drops it.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "surrealdb")

	conn := dial(cfg.URL, logger.New(log.Handler()))
	log.Info("connecting to memory bank", "url", cfg.URL, "namespace", cfg.Namespace, "database", cfg.Database)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	c := &Client{conn: conn, logger: log}
	if err := c.open(ctx, cfg); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	log.Info("memory bank connected", "auth_level", cfg.AuthLevel)
	return c, nil
}

func dial(url string, sdkLogger logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	// gorillaws appends /rpc itself.
	baseURL := strings.TrimSuffix(url, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		dialTimeout,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer
	return conn
}

func (c *Client) open(ctx context.Context, cfg Config) error {
	db, err := surrealdb.FromConnection(ctx, c.conn)
	if err != nil {
		return fmt.Errorf("from connection: %w", err)
	}
	if _, err := db.SignIn(ctx, cfg.auth()); err != nil {
		return fmt.Errorf("signin as %s: %w", cfg.Username, err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	c.db = db
	return nil
}

// Close closes the connection. Pending writes have already completed since
// every Bank call is synchronous.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	c.logger.Info("closing memory bank connection")
	return c.conn.Close(ctx)
}

// InitSchema defines the event and knowledge tables if they are missing.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	c.logger.Debug("schema ready")
	return nil
}

// WipeData deletes every event and knowledge record. Use for testing only.
func (c *Client) WipeData(ctx context.Context) error {
	c.logger.Warn("wiping memory bank")
	for _, table := range []string{tableEvents, string(models.CategoryCreatures), string(models.CategoryItems)} {
		if _, err := surrealdb.Query[any](ctx, c.db, "DELETE type::table($table)", map[string]any{"table": table}); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
