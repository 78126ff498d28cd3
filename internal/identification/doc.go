// Package identification classifies staged dumps.
//
// Signature sniffing decides the format and transcode target; the hash
// catalog and cuesheet database then refine the console and supply the
// canonical release name when the dump is a known good one. Dumps no
// signature matches are routed to review rather than failed.
package identification
