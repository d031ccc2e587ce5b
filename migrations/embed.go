// Package migrations embeds the SQL schema so a single binary can run them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
