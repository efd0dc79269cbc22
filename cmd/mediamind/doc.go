// Command mediamind runs the MediaMind AI website and its maintenance tasks.
//
// # Quick Start
//
//	# Create an application key and write it to .env
//	mediamind key generate
//
//	# Create the schema (needs DB_CONNECTION)
//	mediamind db migrate
//
//	# Start the server on APP_HOST:APP_PORT
//	mediamind serve
//
// # Environment Variables
//
//   - APP_NAME, APP_ENV, APP_DEBUG, APP_URL: application settings
//   - APP_KEY: base64: prefixed key used for encryption and API tokens
//   - APP_HOST, APP_PORT: listen address (default 0.0.0.0:8000)
//   - DB_CONNECTION: mysql, pgsql or sqlite; empty runs without a database
//   - DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME, DB_PASSWORD, DB_PATH
//   - LOG_LEVEL, LOG_CHANNEL, LOG_FORMAT, LOG_PATH
//
// Values are read from .env in the base path, falling back to the process
// environment for keys the file does not set.
package main
