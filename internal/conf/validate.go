package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for consistency.
func ValidateSettings(s *Settings) error {
	var errs []error

	switch s.Database.Dialect {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.dialect: unsupported value %q", s.Database.Dialect))
	}

	switch s.Storage.Backend {
	case "s3":
	case "minio":
		if s.Storage.Endpoint == "" {
			errs = append(errs, errors.New("storage.endpoint: required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unsupported value %q", s.Storage.Backend))
	}

	if len(s.Resolver.Channels) == 0 {
		errs = append(errs, errors.New("resolver.channels: at least one channel is required"))
	}
	for i, ch := range s.Resolver.Channels {
		if ch.Camera == "" {
			errs = append(errs, fmt.Errorf("resolver.channels[%d].camera: required", i))
		}
		if ch.Frame < 0 {
			errs = append(errs, fmt.Errorf("resolver.channels[%d].frame: must be non-negative", i))
		}
	}
	if s.Resolver.RPS < 0 {
		errs = append(errs, errors.New("resolver.rps: must be non-negative"))
	}

	if s.Download.Concurrency <= 0 {
		errs = append(errs, errors.New("download.concurrency: must be positive"))
	}
	if s.Download.RPS < 0 {
		errs = append(errs, errors.New("download.rps: must be non-negative"))
	}

	return errors.Join(errs...)
}
