// Package kernel models kernel-owned objects and the capabilities that
// reach them.
//
// Objects (Process, Event) are reference counted and sealed: only this
// package can implement Object, so a capability cannot be forged outside
// it. Three capability types exist, one per transfer mode:
//
//   - Ref: an owned reference, the thing a process holds
//   - CopyHandle: a duplicate; the sender and receiver each own a reference
//   - MoveHandle: exclusive transfer; the source Ref is invalid from Move on
//
// Every capability is a small state machine (live, closed, moved). Once it
// leaves the live state, Object and Kind fail with ErrHandleClosed or
// ErrHandleMoved and never reach the object again.
//
// Example Usage:
//
//	proc := kernel.NewProcess(42, "game")
//	defer proc.Close()
//
//	dup, err := proc.Copy()
//	if err != nil {
//	    return err
//	}
//	defer dup.Release()
package kernel
