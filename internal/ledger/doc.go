// Package ledger holds the attendance ledger's data rules: id generation,
// normalization of the attendance matrix, sanitizing untrusted documents,
// the pure mutation functions, sort views and totals.
//
// Every mutation takes a model.Document and returns a new one. Inputs are
// never modified. Book wraps the functions with an owned current value,
// persistence and change notification.
package ledger
