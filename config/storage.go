package config

import (
	"fmt"
	"path/filepath"
)

// StorageType selects the backend for uploaded site files.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinio StorageType = "minio"
)

// StorageConfig holds the file storage configuration.
type StorageConfig struct {
	Type  StorageType
	Local LocalStorageConfig
	Minio MinioConfig
}

type LocalStorageConfig struct {
	Root string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadStorageConfig reads the storage section from the environment.
func LoadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Type: StorageType(getEnv("STORAGE_TYPE", string(StorageTypeLocal))),
		Local: LocalStorageConfig{
			Root: getEnv("STORAGE_ROOT", filepath.Join(GetDataFolder(), "files")),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "blogpanel"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func (c *StorageConfig) ValidateConfig() error {
	switch c.Type {
	case StorageTypeLocal:
		if c.Local.Root == "" {
			return fmt.Errorf("storage root cannot be empty")
		}
	case StorageTypeMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("minio endpoint cannot be empty")
		}
		if c.Minio.Bucket == "" {
			return fmt.Errorf("minio bucket cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Type)
	}
	return nil
}
