package main

import (
	"context"

	"github.com/sells-group/proppant-cli/internal/store"
)

// initStore opens the configured store. store.New migrates the schema.
func initStore(ctx context.Context) (store.Store, error) {
	return store.New(ctx, cfg.StoreBackend())
}
