package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/cli/config"
)

func TestConfigErrors_SentinelIdentification(t *testing.T) {
	sentinels := []error{
		config.ErrConfigNotFound,
		config.ErrInvalidConfig,
		config.ErrUnsupportedFormat,
		config.ErrMissingCredentials,
	}

	for i, s := range sentinels {
		wrapped := goerr.Wrap(s, "wrapped")
		gt.Bool(t, errors.Is(wrapped, s)).True()

		for j, other := range sentinels {
			if i != j {
				gt.Bool(t, errors.Is(wrapped, other)).False()
			}
		}
	}
}
