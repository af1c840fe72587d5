package launcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads KEY=value pairs from a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return env, nil
}

// MergeEnv applies overlays on top of base, which uses the os.Environ
// "KEY=value" format. Later overlays win. Keys already present in base keep
// their position; new keys are appended in sorted order.
func MergeEnv(base []string, overlays ...map[string]string) []string {
	merged := make(map[string]string)
	for _, o := range overlays {
		for k, v := range o {
			merged[k] = v
		}
	}

	out := make([]string, 0, len(base)+len(merged))
	applied := make(map[string]struct{}, len(merged))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if v, ok := merged[k]; ok {
			if _, done := applied[k]; done {
				continue
			}
			out = append(out, k+"="+v)
			applied[k] = struct{}{}
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		if _, done := applied[k]; !done {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}

// SetDefault returns env with key=value appended when key is not set yet.
func SetDefault(env []string, key, value string) []string {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return env
		}
	}
	return append(env, prefix+value)
}
