// Package workflow drives queue items through the identify, transcode, and
// organize stages.
//
// Each stage runs as a lane of workers that atomically claim the oldest
// waiting item, so the transcode lane can fan out across several workers
// without double-processing. Failures are classified: conditions a retry
// cannot fix park the item for manual review, everything else marks it
// failed. Items abandoned mid-stage by a crash are rolled back to their
// previous stable status at startup.
package workflow
