// Package migrations embeds the sqlite schema migrations so the binary can
// apply them on startup without shipping loose SQL files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
