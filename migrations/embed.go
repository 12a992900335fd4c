// Package migrations holds the versioned SQL schema, embedded so the CLI can
// migrate without the source tree on disk.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
