package storage

import (
	"context"
	"errors"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a named object does not exist
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for storage operations
type StorageInterface interface {
	Store(ctx context.Context, filename string, data []byte) error
	Retrieve(ctx context.Context, filename string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, filename string) error
}

// New picks blob storage when an account is configured, otherwise the local data directory
func New(ctx context.Context, cfg config.StorageConfig) (StorageInterface, error) {
	if cfg.AzureAccount != "" {
		logrus.WithFields(logrus.Fields{
			"account":   cfg.AzureAccount,
			"container": cfg.AzureContainer,
		}).Info("Using Azure Blob Storage")
		return NewAzureStorage(ctx, cfg.AzureAccount, cfg.AzureContainer)
	}
	logrus.WithField("dir", cfg.DataDir).Info("Using local storage")
	return NewLocalStorage(cfg.DataDir)
}
