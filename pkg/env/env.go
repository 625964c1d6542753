package env

import (
	"fmt"
	"os"
	"strconv"

	motmedelEnvErrors "github.com/Motmedel/response_writer_go/pkg/env/errors"
	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
)

func GetEnvWithDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %q: strconv atoi: %w", motmedelEnvErrors.ErrNotInteger, key, err),
			value,
		)
	}

	return intValue, nil
}
