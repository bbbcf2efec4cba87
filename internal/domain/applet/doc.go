// Package applet keeps the host's record of running applets, one per
// process.
//
// Records are published fully built and never mutated. A Ref names one
// specific record by process id and generation, so a record destroyed
// and re-created for the same process is a different record to every
// holder of the old Ref.
package applet
