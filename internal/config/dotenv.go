package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win over file values. Missing
// files are skipped, so deployments that set real environment variables need
// no .env at all. Returns the files that were actually read.
func LoadDotEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var loaded []string

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return loaded, err
		}

		loaded = append(loaded, p)
	}

	return loaded, nil
}
