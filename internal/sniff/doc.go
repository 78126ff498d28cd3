// Package sniff classifies dump files by magic bytes and structural
// heuristics, independent of file extension.
//
// Only a bounded header prefix is examined (HeaderBytes). Matching is
// deterministic: the same bytes always yield the same descriptor, the most
// specific signature wins, and ambiguous inputs are reported as unknown
// rather than guessed.
package sniff
