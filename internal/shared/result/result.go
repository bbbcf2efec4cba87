package result

import (
	"fmt"
	"sync"
)

// Module identifies the subsystem that produced a Result
type Module uint32

const (
	ModuleNone   Module = 0
	ModuleKernel Module = 1
	ModuleIPC    Module = 10
	ModuleAM     Module = 128
)

const (
	moduleBits      = 9
	descriptionBits = 13
	moduleMask      = 1<<moduleBits - 1
	descriptionMask = 1<<descriptionBits - 1
)

// Result is a packed status code: module in the low 9 bits, description in
// the next 13. The zero value is success.
type Result uint32

// Success is the only non-failing Result
const Success Result = 0

var (
	namesMu sync.RWMutex
	names   = map[Result]string{Success: "Success"}
)

// New packs a module and description into a Result
func New(module Module, description uint32) Result {
	return Result(uint32(module)&moduleMask | (description&descriptionMask)<<moduleBits)
}

// Define creates a named Result. It is meant for package-level vars and
// panics if the code is already defined or the description is zero.
func Define(module Module, description uint32, name string) Result {
	if description == 0 || description > descriptionMask {
		panic(fmt.Sprintf("result: description %d out of range for %s", description, name))
	}

	r := New(module, description)

	namesMu.Lock()
	defer namesMu.Unlock()
	if existing, ok := names[r]; ok {
		panic(fmt.Sprintf("result: %s already defined as %s", r.Code(), existing))
	}
	names[r] = name
	return r
}

// Module returns the module tag
func (r Result) Module() Module {
	return Module(uint32(r) & moduleMask)
}

// Description returns the cause code within the module
func (r Result) Description() uint32 {
	return uint32(r) >> moduleBits & descriptionMask
}

// IsSuccess reports whether r is Success
func (r Result) IsSuccess() bool {
	return r == Success
}

// IsError reports whether r is a failure
func (r Result) IsError() bool {
	return r != Success
}

// Code formats the result the way it shows up in crash reports: 2MMM-DDDD
func (r Result) Code() string {
	return fmt.Sprintf("%04d-%04d", 2000+uint32(r.Module()), r.Description())
}

// Name returns the registered name, or the formatted code for results
// nobody defined. Suitable as a metric label.
func (r Result) Name() string {
	if name, ok := r.lookup(); ok {
		return name
	}
	return r.Code()
}

// String returns the registered name and the formatted code
func (r Result) String() string {
	name, ok := r.lookup()
	if !ok {
		name = "Unknown"
	}
	return fmt.Sprintf("%s (%s)", name, r.Code())
}

func (r Result) lookup() (string, bool) {
	namesMu.RLock()
	defer namesMu.RUnlock()
	name, ok := names[r]
	return name, ok
}

// Error makes a failing Result usable as an error. Use Err to get a nil
// error for Success.
func (r Result) Error() string {
	return r.String()
}

// Err returns nil for Success and r otherwise
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return r
}
