package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/persistence/file"
	"github.com/ideonhq/ideon/pkg/persistence/postgresql"
)

// NewPersistence picks the graph store from the database URL scheme.
// postgres:// and postgresql:// connect to PostgreSQL; anything else is
// treated as a directory path for the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch persistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}

func persistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
