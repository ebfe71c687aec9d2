// Package migrations embeds the goose migrations for the Postgres
// identity-directory backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
