// Package env loads .env files into the process environment.
//
// Each line has the form KEY=VALUE. Blank lines and lines starting with
// "#" are skipped, and surrounding single or double quotes are removed
// from values.
//
// # Interpolation
//
// Values may refer to other variables:
//
//	APP_URL=http://localhost
//	ASSET_URL=${APP_URL}/assets
//	LOG_DIR=$HOME/logs
//
// A ${NAME} reference resolves only against variables loaded earlier from
// the same store. A $NAME reference (upper case and underscores) resolves
// against the store and then the process environment. References that
// cannot be resolved are kept verbatim.
//
// # Environment
//
// APP_ENV selects one of local, testing, staging or production. When it is
// unset or unknown the application runs as production.
package env
