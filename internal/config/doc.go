// SPDX-License-Identifier: MPL-2.0

// Package config loads the modus configuration using Viper with CUE as the
// file format.
//
// The file is config.cue in the user configuration directory
// ($XDG_CONFIG_HOME/modus on Linux, ~/Library/Application Support/modus on
// macOS, %APPDATA%\modus on Windows) or in the current directory. It is
// validated against the embedded #Config schema (config_schema.cue), merged
// over the defaults, and MODUS_* environment variables override both, with
// dots in keys replaced by underscores (MODUS_DOCKERFILE_SYNTAX).
package config
