package utils

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads a .env file for the given environment. The lookup order is
// .env.<env>, then .env. Missing files return an error so the caller can decide
// whether that matters.
func LoadEnv(env string) error {
	if env != "" {
		if err := godotenv.Load(fmt.Sprintf(".env.%s", env)); err == nil {
			return nil
		}
	}
	return godotenv.Load()
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}
