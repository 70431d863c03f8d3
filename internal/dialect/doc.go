// Package dialect provides the concrete SQL dialects and their amender
// passes.
//
// ARCHITECTURE:
//
// Every dialect embeds sqlfmt.ANSI and overrides only what differs. Go
// embedding does not dispatch virtually, so ANSI methods never call one
// another; the formatter is the only caller of dialect methods.
//
//	sqlserver  [x]   @pN  TOP(n)      OUTPUT INSERTED  no boolean literals
//	mysql      `x`   ?    LIMIT/OFFSET  -              AUTO_INCREMENT
//	sqlite     "x"   ?    LIMIT/OFFSET  RETURNING      INTEGER PRIMARY KEY AUTOINCREMENT
//	postgres   "x"   $N   LIMIT/OFFSET  RETURNING      SERIAL / BIGSERIAL
//
// AMENDERS:
//
// Amenders are tree rewrites run by sqlfmt.PreProcess after the optimizer
// and before emission, in this order:
//
//  1. EmulateSkip: skip-only selects become a ROW_NUMBER() filter (TOP dialects)
//  2. NormalizeBooleans: predicate and value positions reconciled (no boolean literals)
//  3. AmendAutoIncrement: the auto-increment column joins the primary key
//
// Each amender is idempotent: running it on its own output changes nothing.
package dialect
