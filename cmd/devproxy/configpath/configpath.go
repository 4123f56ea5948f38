// Package configpath locates the devproxy config file for commands.
package configpath

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/devproxy/pkg/devconfig"
)

// ResolveConfigPath returns the explicit path if one is given. Otherwise it
// looks for devproxy.toml in the working directory.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not determine working directory: %w", err)
	}

	path := filepath.Join(wd, devconfig.DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no --config given and %s not found: %w", path, err)
	}
	return path, nil
}
