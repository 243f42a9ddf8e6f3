// Package migrations embeds the goose SQL migrations for the postgres
// driver. The sqlite driver bootstraps its schema inline instead.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
