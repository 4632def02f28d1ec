package migrations

import "embed"

// FS contains the embedded schema of the host tables the triggers read and write.
//
//go:embed *.sql
var FS embed.FS
