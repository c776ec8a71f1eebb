package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"dummyshop/storefront/internal/config"
	"dummyshop/storefront/internal/storage"
)

// waitforstorage blocks until the configured storage backend accepts a
// round trip, so compose setups can start the gateway after Postgres or Redis.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_STORAGE_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_STORAGE_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		err := ping(cfg.Storage)
		if err == nil {
			fmt.Printf("%s storage ready\n", cfg.Storage.Backend)
			return
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "%s storage not ready within %s: %v\n", cfg.Storage.Backend, timeout, err)
			os.Exit(1)
		}
		time.Sleep(2 * time.Second)
	}
}

func ping(cfg config.StorageConfig) error {
	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err = store.Get(ctx, "waitforstorage.ping")
	return err
}
