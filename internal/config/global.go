// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory when set.
var configDirOverride string

// Reset clears the config directory override.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride points ConfigDir at dir. Tests use it to keep
// `modus config init` and the default lookup away from the real home directory.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
