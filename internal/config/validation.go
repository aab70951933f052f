package config

import (
	"fmt"
	"strconv"
	"time"
)

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 24*time.Hour {
		return fmt.Errorf("%s timeout too large (max 24 hours)", name)
	}
	return nil
}

// ValidateCapacity validates a queue capacity; zero means unbounded.
func ValidateCapacity(capacity int, name string) error {
	if capacity < 0 {
		return fmt.Errorf("%s capacity cannot be negative", name)
	}
	return nil
}

// ValidatePort validates port number
func ValidatePort(port string, name string) error {
	if port == "" {
		return fmt.Errorf("%s port is required", name)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%s port invalid: %q", name, port)
	}

	return nil
}

// ValidateHistoryDriver validates the optional history store driver.
func ValidateHistoryDriver(driver, dsn string) error {
	switch driver {
	case "":
		return nil
	case "sqlite3", "postgres":
		if dsn == "" {
			return fmt.Errorf("HISTORY_DSN is required when HISTORY_DRIVER is %s", driver)
		}
		return nil
	default:
		return fmt.Errorf("unsupported HISTORY_DRIVER %q (want sqlite3 or postgres)", driver)
	}
}
