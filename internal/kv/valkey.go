package kv

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig holds configuration for the Valkey storage backend.
type ValkeyConfig struct {
	// URL is the Valkey server address (e.g., "valkey.namespace.svc:6379")
	URL string

	// Password is the optional password for Valkey authentication
	Password string

	// TLSEnabled enables TLS for Valkey connections
	TLSEnabled bool

	// TLSCAFile is the path to a custom CA certificate file for TLS
	// verification. Use this when Valkey uses certificates signed by a
	// private CA.
	TLSCAFile string

	// DB is the Valkey database number (default: 0)
	DB int
}

// ValkeyStore implements Store on top of a Valkey server. Listing uses
// the SCAN cursor protocol, which matches the Store contract directly:
// bounded pages with an opaque continuation cursor.
type ValkeyStore struct {
	client valkey.Client
}

// NewValkeyStore connects to the Valkey server described by cfg.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("valkey URL is required")
	}

	opt := valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}

	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCAFile != "" {
			caCert, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate %s: %w", cfg.TLSCAFile, err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate %s", cfg.TLSCAFile)
			}
			tlsConfig.RootCAs = pool
		}
		opt.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}

	return &ValkeyStore{client: client}, nil
}

// Get returns the value for key, or ok=false when the key is absent.
func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return val, true, nil
}

// Put stores value under key.
func (s *ValkeyStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del %s: %w", key, err)
	}
	return nil
}

// List returns one SCAN page of keys matching prefix. The returned
// cursor is the decimal SCAN cursor; a zero cursor from the server
// marks the listing complete.
func (s *ValkeyStore) List(ctx context.Context, prefix, cursor string) (Page, error) {
	var cur uint64
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid list cursor %q: %w", cursor, err)
		}
		cur = parsed
	}

	resp := s.client.Do(ctx, s.client.B().Scan().Cursor(cur).Match(prefix+"*").Count(DefaultPageSize).Build())
	entry, err := resp.AsScanEntry()
	if err != nil {
		return Page{}, fmt.Errorf("valkey scan %s: %w", prefix, err)
	}

	page := Page{
		Keys:     entry.Elements,
		Complete: entry.Cursor == 0,
	}
	if !page.Complete {
		page.Cursor = strconv.FormatUint(entry.Cursor, 10)
	}
	return page, nil
}

// Close closes the underlying Valkey connection.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
