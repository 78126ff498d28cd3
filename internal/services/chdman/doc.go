// Package chdman wraps the chdman command-line tool from MAME, which
// compresses optical disc dumps into the CHD container.
//
// chdman exits zero even for some failure modes and reports its real outcome
// as text markers ("Compression complete", "verification successful"), so
// the client parses combined output rather than trusting exit codes alone.
package chdman
