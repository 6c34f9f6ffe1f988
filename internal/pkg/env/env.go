// Package env loads configuration from a .env file, falling back to the
// process environment.
package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv returns the configured value for key. The loaded .env file wins
// over the process environment; def is returned when neither has the key.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile reads the project's .env file. Binaries under cmd/ run with a
// working directory up to two levels below the project root, so parent
// directories are tried in order.
func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	panic("No .env file found in any of the expected locations")
}

// IsDev reports whether the app runs in the development environment.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
