package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/config"
	"github.com/cmlabs-hris/school-backend-go/internal/pipeline"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	errAndDie(err)
	errAndDie(cfg.ValidateClient())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	catalog, err := config.LoadClassCatalog(cfg.Client.ClassCatalogPath)
	errAndDie(err)

	client := pipeline.NewHTTPClient(cfg.Client.BaseURL, cfg.Client.Token, cfg.Client.Timeout, logger)

	cli := commandLine{
		catalog:        catalog,
		roster:         client,
		store:          client,
		out:            os.Stdout,
		now:            time.Now,
		successDisplay: cfg.Client.SuccessDisplay,
		templateDir:    cfg.Storage.BasePath,
		templateURL:    cfg.Storage.BaseURL,
		newStorage: func(dir, baseURL string) (storage.FileStorage, error) {
			return storage.NewLocalStorage(dir, baseURL)
		},
		jwtSecret:     cfg.JWT.Secret,
		jwtExpiration: cfg.JWT.AccessExpiration,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
