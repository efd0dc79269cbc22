// Package config provides configuration management for MediaMind.
//
// Configuration lives in YAML files, one per top-level key, so
// config/database.yml provides every "database.*" value. Files are read
// eagerly with Load or lazily on first access through Get.
//
// # Environment references
//
// String values may reference environment variables (see package env):
//
//	debug: ${APP_DEBUG:-false}
//	url: http://${APP_HOST:-localhost}:${APP_PORT:-8000}
//
// A value made of a single reference takes the type of the variable after
// coercion (true, false, null and empty keywords; canonical integers).
//
// # Cache
//
// "mediamind config cache" writes the merged configuration to
// bootstrap/cache/config.json. When a cache file is set with UseCache and
// exists, Load reads it instead of the YAML files.
//
// # Key Configuration Options
//
//   - APP_ENV, APP_DEBUG, APP_KEY, APP_URL: application settings
//   - DB_CONNECTION, DB_HOST, DB_PORT, DB_DATABASE: database connection
//   - LOG_LEVEL, LOG_CHANNEL: logging
package config
