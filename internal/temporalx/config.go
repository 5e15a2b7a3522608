package temporalx

import (
	"os"
	"strings"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string
}

// LoadConfig reads the Temporal connection settings. An empty Address means
// Temporal is disabled and jobs run on the database polling worker alone.
func LoadConfig() Config {
	return Config{
		Address:   strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS")),
		Namespace: firstNonEmpty(strings.TrimSpace(os.Getenv("TEMPORAL_NAMESPACE")), "caelex"),
		TaskQueue: firstNonEmpty(strings.TrimSpace(os.Getenv("TEMPORAL_TASK_QUEUE")), "caelex"),

		ClientCertPath: strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CERT_PATH")),
		ClientKeyPath:  strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_KEY_PATH")),
		ClientCAPath:   strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CA_PATH")),
	}
}

func firstNonEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
