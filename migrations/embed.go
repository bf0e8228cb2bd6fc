// Package migrations встраивает SQL миграции схемы.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
