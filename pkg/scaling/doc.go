// Package scaling compiles and evaluates the formulas that turn raw firmware
// integers into engineering values.
//
// Formulas use a small fixed grammar. X (or x) is the raw value:
//
//	X*0.75-40
//	(X/2)-40
//	0.0078125*X^2 + 0.5*X
//	min(X*10, 6500)
//
// Supported: decimal and 0x literals, + - * / % ^, unary minus, parentheses, and the
// functions abs, sqrt, min, max, pow, log, log10, exp, round, floor and ceil.
// Nothing else is accepted; a formula can never call into the host program.
//
// Affine formulas (raw*scale+offset) are recognized by Program.Affine so exporters
// can report scale and offset directly.
package scaling
