package applet

import (
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
)

// Kind classifies an applet
type Kind uint32

const (
	KindApplication Kind = iota
	KindLibraryApplet
	KindSystemApplet
)

var kindNames = map[Kind]string{
	KindApplication:   "application",
	KindLibraryApplet: "library_applet",
	KindSystemApplet:  "system_applet",
}

// String returns the kind name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint32(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name. The empty string means application.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindApplication, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Spec describes an applet to create
type Spec struct {
	ProgramID uint64
	Kind      Kind
}

// Applet is the host's record of a running applet. Records are immutable
// once published; callers get copies.
type Applet struct {
	ID        string           `json:"id"`
	ProcessID kernel.ProcessID `json:"process_id"`
	ProgramID uint64           `json:"program_id"`
	Kind      Kind             `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`

	generation uint64
}

// Generation distinguishes this record from any other record ever created
// for the same process
func (a *Applet) Generation() uint64 {
	return a.generation
}

// Ref returns a weak reference to this record
func (a *Applet) Ref() Ref {
	return Ref{ProcessID: a.ProcessID, Generation: a.generation}
}

// Ref names one specific record without keeping it alive. It resolves
// only while that exact record is registered.
type Ref struct {
	ProcessID  kernel.ProcessID
	Generation uint64
}
