package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFileIfExists loads a .env file if it exists, otherwise does nothing.
// Variables already present in the environment are never overridden.
// Side effects: writes to the process environment if the file is present.
func LoadEnvFileIfExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
