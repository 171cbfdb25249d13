// Package compose is the composition resolution and bucketing engine.
//
// It maps a template's block forest, its wildcard value pools and a single
// integer composition id to concrete text, and provides the machinery that
// keeps a very large combination space navigable: bucket windows, locked
// sub-products, deterministic sampling and display-only operations.
//
// Everything here is synchronous and side-effect free. Loading templates and
// pools is the caller's job (see internal/service); this package only reads
// the snapshot it is handed, so concurrent passes over different composition
// ids never interfere.
//
// Two orderings coexist and must not be conflated:
//   - the canonical dimension order (ext_text first, then wildcard names
//     ascending) used by every odometer computation, and
//   - the first-appearance order of placeholders in block text, used for
//     presenting substitutions.
package compose
