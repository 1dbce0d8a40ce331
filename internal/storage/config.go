package storage

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Backend selection values.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	DriverRedis = "redis"
	DriverS3    = "s3"
)

// Config selects and configures the storage backends. It is read once by Open.
type Config struct {
	Backend string       `yaml:"backend"`
	Local   LocalConfig  `yaml:"local"`
	Remote  RemoteConfig `yaml:"remote"`
}

// Validate validates the storage configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLocal, BackendRemote)),
	); err != nil {
		return err
	}
	if err := c.Local.Validate(); err != nil {
		return err
	}
	if c.Backend == BackendRemote {
		return c.Remote.Validate()
	}
	return nil
}

// RemoteEnabled reports whether the remote backend fronts the local store.
func (c *Config) RemoteEnabled() bool {
	return c.Backend == BackendRemote
}

// LocalConfig points at the content root on disk.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the local configuration.
func (c *LocalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// RemoteConfig configures the remote key/value service.
type RemoteConfig struct {
	Driver  string        `yaml:"driver"`
	Timeout time.Duration `yaml:"timeout"`
	Redis   RedisConfig   `yaml:"redis"`
	S3      S3Config      `yaml:"s3"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverRedis, DriverS3)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	switch c.Driver {
	case DriverRedis:
		return validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.URL, validation.Required),
		)
	default:
		return validation.ValidateStruct(&c.S3,
			validation.Field(&c.S3.Bucket, validation.Required),
		)
	}
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// S3Config configures the s3 driver.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	Prefix          string `yaml:"prefix"`
}
