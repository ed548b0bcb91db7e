package persist

import (
	"fmt"
	"log/slog"
	"net/url"
)

// Storage drivers accepted by [Open] and [OpenBackend].
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"

	// DriverRemote persists through a [KVHandler] endpoint on another host.
	// It has no local medium, so only [OpenBackend] accepts it.
	DriverRemote = "remote"
)

// Backend is an [Adapter] that holds a medium or connections until closed.
type Backend interface {
	Adapter
	Close() error
}

// Open opens a [Storage] medium by driver name. The bolt and sqlite drivers
// create the database file at path if needed; memory ignores path.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStorage(), nil
	case DriverBolt:
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverRemote:
		return nil, fmt.Errorf("storage driver %q has no local medium", driver)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// OpenBackend opens the adapter for driver. Local drivers wrap the medium
// from [Open] in a [KV]. For [DriverRemote], path is the base URL of a
// [KVHandler] endpoint and opts configure the [Remote].
func OpenBackend(driver, path string, logger *slog.Logger, opts ...RemoteOption) (Backend, error) {
	if driver != DriverRemote {
		st, err := Open(driver, path)
		if err != nil {
			return nil, err
		}
		return NewKV(st, logger), nil
	}

	u, err := url.Parse(path)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote storage needs an http(s) URL, got %q", path)
	}
	return NewRemote(path, append([]RemoteOption{WithLogger(logger)}, opts...)...), nil
}
