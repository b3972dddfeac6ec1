package config

import (
	"os"
	"strings"
)

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// getEnvOrFile reads KEY, or the file named by KEY_FILE. The file wins when
// both are set; an unreadable file is reported as an error.
func getEnvOrFile(key string) (string, error) {
	if path := getEnv(key + "_FILE"); path != "" {
		return readSecretFile(path)
	}
	return getEnv(key), nil
}

func readSecretFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

// providerEnv collects DNSYNCMYIP_{PROVIDER}_{KEY} variables as KEY -> value.
// KEY_FILE variables are resolved and stored under KEY, taking precedence.
func providerEnv(label string) (map[string]string, []string) {
	prefix := EnvPrefix + normalizeLabel(label) + "_"
	settings := make(map[string]string)
	fromFile := make(map[string]bool)
	var errs []string

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.TrimPrefix(name, prefix)
		if key == "" {
			continue
		}

		if base, isFile := strings.CutSuffix(key, "_FILE"); isFile && base != "" {
			content, err := readSecretFile(strings.TrimSpace(value))
			if err != nil {
				errs = append(errs, name+": "+err.Error())
				continue
			}
			settings[base] = content
			fromFile[base] = true
			continue
		}

		if !fromFile[key] {
			settings[key] = strings.TrimSpace(value)
		}
	}

	return settings, errs
}

// normalizeLabel converts a provider label to its variable form:
// "my-dns" becomes "MY_DNS".
func normalizeLabel(label string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(label)), "-", "_")
}

// parseBool accepts true/false, 1/0, yes/no and on/off.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}
