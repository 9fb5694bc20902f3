// Package migrations embeds the SQL schema for both services' PostgreSQL stores.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
