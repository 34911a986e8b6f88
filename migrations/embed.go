// Package migrations embeds the SQL migrations for both storage backends.
package migrations

import "embed"

// FS holds postgres/*.sql (remote backend) and sqlite/*.sql (local store).
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
