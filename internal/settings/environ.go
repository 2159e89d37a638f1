package settings

import "strings"

// OverridesFromEnviron collects DROPTIMIZER_* entries from an os.Environ-style slice.
func OverridesFromEnviron(environ []string) map[string]string {
	overrides := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(key), Prefix) {
			continue
		}
		overrides[key] = value
	}
	return overrides
}
