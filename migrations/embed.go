// Package migrations содержит схему базы для goose, по каталогу на диалект.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
