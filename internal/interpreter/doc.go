// Package interpreter turns free-form Portuguese chat utterances such as
// "gastei 50 no mercado" into candidate transactions.
//
// The pipeline is:
//
//	utterance -> Scan (number tokens)
//	          -> for each token: ParseAmount, window, direction, category
//	          -> one Transaction per parseable token
//
// Offsets are rune indices into the lowercased utterance. The package does
// no I/O of its own; learned categories are read through the Lookup
// interface supplied by the caller.
package interpreter
