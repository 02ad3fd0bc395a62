// Package vm is the execution engine of the Noc stack machine.
//
// A Unit holds the code, constant pool and symbol table produced by the
// compiler. A Machine runs a unit against one operand stack of tagged
// Values: integers, floats, booleans, characters, strings, quotes and
// symbol references.
//
// # Quotes
//
// CREATE_QUOTE n moves the top n values into a first-class Quote.
// UNQUOTE applies a quote: each element that is a symbol is dispatched
// (opcode symbols through the handler table, function symbols by running
// the unit from their entry point, primitive symbols through the primitive
// registry) and every other element is pushed. Application re-enters the
// machine through the Executor interface, so a host can substitute its own
// dispatch loop.
//
// # Errors
//
// Every handler returns an *Error. Errors are fatal to the run; the stack
// is left as it was when the failing handler gave up and there is no
// recovery inside the language. Use errors.Is with the Err* sentinels to
// test the kind.
package vm
