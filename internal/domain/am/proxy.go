package am

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/applet"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

// ApplicationProxy is a client's view of one applet record. It holds a
// weak reference, so it never keeps the record alive; once the record is
// destroyed or replaced every command fails with ResultAppletGone.
type ApplicationProxy struct {
	registry Registry
	ref      applet.Ref
}

var applicationProxy = ipc.NewService("IApplicationProxy",
	ipc.Command(0, "GetProcessId", (*ApplicationProxy).getProcessID),
	ipc.Command(1, "GetProgramId", (*ApplicationProxy).getProgramID),
	ipc.Command(2, "GetAppletKind", (*ApplicationProxy).getAppletKind),
)

func newApplicationProxy(registry Registry, ref applet.Ref) *ApplicationProxy {
	return &ApplicationProxy{registry: registry, ref: ref}
}

// Service implements ipc.Object
func (*ApplicationProxy) Service() *ipc.Service {
	return applicationProxy
}

// Ref returns the record the proxy is bound to
func (p *ApplicationProxy) Ref() applet.Ref {
	return p.ref
}

// resolve returns the bound record if it is still registered
func (p *ApplicationProxy) resolve() (*applet.Applet, result.Result) {
	a, ok := p.registry.Resolve(p.ref)
	if !ok {
		return nil, ResultAppletGone
	}
	return a, result.Success
}

type processIDOut struct {
	ProcessID uint64
}

func (p *ApplicationProxy) getProcessID(context.Context, struct{}) (processIDOut, result.Result) {
	a, res := p.resolve()
	if res.IsError() {
		return processIDOut{}, res
	}
	return processIDOut{ProcessID: uint64(a.ProcessID)}, result.Success
}

type programIDOut struct {
	ProgramID uint64
}

func (p *ApplicationProxy) getProgramID(context.Context, struct{}) (programIDOut, result.Result) {
	a, res := p.resolve()
	if res.IsError() {
		return programIDOut{}, res
	}
	return programIDOut{ProgramID: a.ProgramID}, result.Success
}

type appletKindOut struct {
	Kind uint32
}

func (p *ApplicationProxy) getAppletKind(context.Context, struct{}) (appletKindOut, result.Result) {
	a, res := p.resolve()
	if res.IsError() {
		return appletKindOut{}, res
	}
	return appletKindOut{Kind: uint32(a.Kind)}, result.Success
}
