// Package stage defines the handler contract the workflow manager drives and
// the health records stages report before the daemon starts processing.
package stage
