package migrations

import "embed"

//go:embed *.sql
var AllUp embed.FS
