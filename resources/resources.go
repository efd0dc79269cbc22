// Package resources embeds the application's views.
package resources

import "embed"

// Views holds the views/ tree: page templates, layouts/, partials/,
// errors/ and api/
//
//go:embed views
var Views embed.FS
