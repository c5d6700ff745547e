package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/relog-go/internal/telemetry/logger"
	"github.com/yndnr/relog-go/pkg/crypto/adaptive"
)

// Verify validates the configuration and creates the data directory.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http: %w", err)
		}
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		return errors.New("server.http.max_body_bytes must be positive")
	}
	if cfg.HTTP.RateLimit < 0 || cfg.HTTP.RateBurst < 0 {
		return errors.New("server.http.rate_limit and rate_burst must not be negative")
	}
	if len(cfg.Local.SocketPath) > maxSocketPath {
		return fmt.Errorf("server.local.socket_path longer than %d bytes", maxSocketPath)
	}
	return nil
}

// maxSocketPath is the shortest sun_path limit among supported platforms.
const maxSocketPath = 103

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.Shards < 1 {
		return errors.New("storage.shards must be at least 1")
	}
	if cfg.SnapshotInterval < 0 || cfg.SnapshotMinInterval < 0 ||
		cfg.SnapshotMaxLogBytes < 0 || cfg.SnapshotEveryUpdates < 0 {
		return errors.New("storage.snapshot_* must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if _, err := adaptive.ParseCipherType(cfg.Cipher); err != nil {
		return fmt.Errorf("security.cipher: %w", err)
	}
	if cfg.EncryptionKey == "" {
		return nil
	}
	if _, err := adaptive.ParseKey(cfg.EncryptionKey, []byte(cfg.KeySalt)); err != nil {
		return fmt.Errorf("security.encryption_key: %w", err)
	}
	return nil
}
