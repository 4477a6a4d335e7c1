package config

import (
	"os"
	"path/filepath"
	"strings"
)

const DefaultRoot = "~/assets"

// Root returns the managed assets root from ASSETDB_ROOT, falling back to
// DefaultRoot. A leading ~ is expanded to the home directory.
func Root() string {
	root := DefaultRoot
	if env := os.Getenv("ASSETDB_ROOT"); env != "" {
		root = env
	}
	if strings.HasPrefix(root, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, root[1:])
		}
	}
	return root
}

// EventsDir returns the shared event-log directory from ASSETDB_EVENTS,
// falling back to the .events directory under the managed root.
func EventsDir(root string) string {
	if env := os.Getenv("ASSETDB_EVENTS"); env != "" {
		return env
	}
	return filepath.Join(root, ".events")
}

// Author returns this client's identity, "<user>-<host>", used to name its
// event log file.
func Author() string {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	if user == "" {
		user = "unknown"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return user + "-" + host
}
