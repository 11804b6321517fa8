package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/nudge/internal/config"
	"github.com/julianstephens/nudge/internal/keyring"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/storage/jsonstore"
	"github.com/julianstephens/nudge/internal/storage/postgres"
	"github.com/julianstephens/nudge/internal/storage/sqlite"
)

// KeyringLocation selects the PostgreSQL connection string kept in the OS
// keyring (or $NUDGE_DATABASE_DSN).
const KeyringLocation = "keyring"

// ErrEmbeddedCredentials is returned for PostgreSQL locations that carry a
// password outside the keyring.
var ErrEmbeddedCredentials = errors.New("PostgreSQL connection strings with embedded credentials are not allowed; " +
	"store it with 'nudge keyring set' or use .pgpass")

// OpenStore builds the provider for location without opening it: a
// PostgreSQL URI or DSN, "keyring", a .json file or a sqlite file.
func OpenStore(location string) (storage.Provider, error) {
	if location == KeyringLocation {
		connStr, err := keyring.ResolveConnectionString("")
		if err != nil {
			return nil, fmt.Errorf("failed to read connection string: %w", err)
		}
		if connStr == "" {
			return nil, fmt.Errorf("no connection string in keyring or $%s", keyring.EnvConnectionString)
		}
		// keyring entries may hold a password
		return postgres.New(connStr), nil
	}

	switch (config.DatabaseConfig{Path: location}).Backend() {
	case "postgres":
		if _, err := postgres.ValidateConnString(location); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, ErrEmbeddedCredentials
			}
			return nil, err
		}
		return postgres.New(location), nil
	case "json":
		return jsonstore.New(config.ExpandHome(location)), nil
	default:
		return sqlite.NewStore(config.ExpandHome(location)), nil
	}
}

// Location picks the store location from an explicit flag, then the
// configured DSN, then the configured path.
func Location(flag string, cfg *config.Config) string {
	switch {
	case flag != "":
		return flag
	case cfg == nil:
		return ""
	case cfg.Database.DSN != "":
		return cfg.Database.DSN
	default:
		return cfg.Database.Path
	}
}
