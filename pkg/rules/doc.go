// Package rules compiles validation rules for a template.
//
// Two entry points produce the same Rule shape. The structured builder turns
// a Draft (one or two comparisons joined by AND/OR, with optional THEN/ELSE
// assignments) into an expression string:
//
//	age > 18
//	IF dischargeDate < admitDate THEN status = "review"
//
// The preset builder substitutes field ids and literals into one of a small
// catalog of named expressions, and the free-text builder defers to an
// external Translator. In every case DependsOn lists the field ids the
// expression reads, since downstream evaluators use it as the only trigger
// for recomputation.
//
// The package never evaluates expressions.
package rules
