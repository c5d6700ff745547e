package config

import "time"

// ServerConfig is the root configuration for relog-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`
}

// LocalConfig configures the local administration socket.
type LocalConfig struct {
	// SocketPath enables the Unix socket listener when set.
	SocketPath string `koanf:"socket_path"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// MaxBodyBytes caps PUT bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// StorageSection configures the journal-backed store.
type StorageSection struct {
	DataDir    string `koanf:"data_dir"`
	SyncWrites bool   `koanf:"sync_writes"`
	Shards     int    `koanf:"shards"`

	// Snapshot policy; zero disables a trigger.
	SnapshotInterval     time.Duration `koanf:"snapshot_interval"`
	SnapshotMaxLogBytes  int64         `koanf:"snapshot_max_log_bytes"`
	SnapshotEveryUpdates int64         `koanf:"snapshot_every_updates"`
	SnapshotMinInterval  time.Duration `koanf:"snapshot_min_interval"`
}

// SecuritySection configures payload encryption.
type SecuritySection struct {
	// EncryptionKey enables sealed payloads. See adaptive.ParseKey for the
	// accepted forms.
	EncryptionKey string `koanf:"encryption_key"`
	// KeySalt salts passphrase keys. Changing it makes existing data
	// unreadable.
	KeySalt string `koanf:"key_salt"`
	// Cipher is auto, aes-gcm or chacha20-poly1305.
	Cipher string `koanf:"cipher"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
