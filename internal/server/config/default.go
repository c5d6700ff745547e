package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:7480"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = 16 << 20

	DefaultDataDir             = "/var/lib/relog-server/data"
	DefaultShards              = 32
	DefaultSnapshotInterval    = time.Hour
	DefaultSnapshotMaxLogBytes = 64 << 20
	DefaultSnapshotMinInterval = 10 * time.Second
	DefaultKeySalt             = "relog-server/v1"
	DefaultCipher              = "auto"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
				MaxBodyBytes:    DefaultMaxBodyBytes,
			},
		},
		Storage: StorageSection{
			DataDir:             DefaultDataDir,
			SyncWrites:          true,
			Shards:              DefaultShards,
			SnapshotInterval:    DefaultSnapshotInterval,
			SnapshotMaxLogBytes: DefaultSnapshotMaxLogBytes,
			SnapshotMinInterval: DefaultSnapshotMinInterval,
		},
		Security: SecuritySection{
			KeySalt: DefaultKeySalt,
			Cipher:  DefaultCipher,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
