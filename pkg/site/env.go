package site

import (
	"errors"

	"github.com/mediamind-ai/mediamind/pkg/env"
)

// loadEnv reads path into the environment store; a missing file is fine
func loadEnv(path string) error {
	if err := env.Load(path); err != nil && !errors.Is(err, env.ErrNotFound) {
		return err
	}
	return nil
}
