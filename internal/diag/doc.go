// Package diag defines the diagnostic model shared by all pipeline stages.
//
// Stages never print. They either return a typed error (qualify.Error,
// typecheck.Error, ...) which the driver turns into a Diagnostic, or they
// push diagnostics through a Reporter (the lexer does this). Rendering lives
// in internal/diagfmt.
//
// Codes are grouped by stage: LEX1xxx, SYN2xxx, QUA3xxx, TYP4xxx, SIZ5xxx,
// LOW6xxx, IO9xxx.
package diag
