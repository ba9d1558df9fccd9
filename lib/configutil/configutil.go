package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ReadConfig reads a json5 configuration file. When a sibling
// `<name>.local.<ext>` exists its values override the base file, which
// keeps credentials and per-machine tweaks out of the committed config.
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		err = json5.Unmarshal(base, &out)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localPath := localizedPath(name)
	local, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override T
		err = json5.Unmarshal(local, &override)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", localPath, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks up from the working directory until it finds a
// configuration file matching name.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if os.IsNotExist(err) {
			parent := filepath.Dir(current)
			if parent == current {
				return zero, os.ErrNotExist
			}
			current = parent
			continue
		}
		if err != nil {
			return zero, err
		}
		return config, nil
	}
}

func localizedPath(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)

	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	if ext == "" {
		return filepath.Join(dir, prefix+".local")
	}
	return filepath.Join(dir, fmt.Sprintf("%s.local%s", prefix, ext))
}
