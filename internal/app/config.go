package app

import (
	"errors"
	"os"

	"github.com/vidloop/keystoned/pkg/yaml"
)

// LoadConfig unmarshals every loaded config source into v in order, so
// later sources (currently just the one file) win on key collisions.
func LoadConfig(v any) {
	for _, data := range configs {
		if err := yaml.Unmarshal(data, v); err != nil {
			Logger.Warn().Err(err).Msg("[app] read config")
		}
	}
}

// PatchConfig rewrites a single key under path in the persisted config
// file via write-temp + rename, so a crash mid-write never leaves a
// truncated file. path is the sequence of parent keys, e.g. "pending";
// with no path, key is written at the top level.
func PatchConfig(key string, value any, path ...string) error {
	if ConfigPath == "" {
		return errors.New("config file disabled")
	}
	if ConfigReadOnly {
		return errors.New("config is read-only")
	}

	b, _ := os.ReadFile(ConfigPath) // empty config is OK

	b, err := yaml.Patch(b, key, value, path...)
	if err != nil {
		return err
	}

	return writeFileAtomic(ConfigPath, b)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

var configs [][]byte
