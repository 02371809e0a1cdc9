package config

import "os"

// FirstEnv returns the value of the first environment variable in names
// that is set to a non-empty value. Used for credential resolution so
// deployments can keep provider-specific variable names.
func FirstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
