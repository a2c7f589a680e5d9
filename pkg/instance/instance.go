package instance

import (
	"os"
	"strings"
)

// GetID identifies the running process in logs and lock ownership. It reads
// DYNO, then HOSTNAME, and falls back to "local".
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
