package am

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/applet"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

// ServiceName is the name ApplicationProxyService is published under
const ServiceName = "appletOE"

// Registry is the view of the applet registry the broker needs
type Registry interface {
	Lookup(pid kernel.ProcessID) (*applet.Applet, bool)
	Resolve(ref applet.Ref) (*applet.Applet, bool)
}

// ApplicationProxyService hands out application proxies to processes
// that have an applet record
type ApplicationProxyService struct {
	registry Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

var applicationProxyService = ipc.NewService(ServiceName,
	ipc.Command(0, "OpenApplicationProxy", (*ApplicationProxyService).openApplicationProxy),
)

// NewApplicationProxyService creates the broker
func NewApplicationProxyService(registry Registry, logger *zap.Logger) *ApplicationProxyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationProxyService{
		registry: registry,
		logger:   logger.With(zap.String("service", ServiceName)),
	}
}

// WithMetrics adds metrics tracking to the service
func (s *ApplicationProxyService) WithMetrics(metrics *monitoring.Metrics) *ApplicationProxyService {
	s.metrics = metrics
	return s
}

// Service implements ipc.Object
func (*ApplicationProxyService) Service() *ipc.Service {
	return applicationProxyService
}

type openApplicationProxyIn struct {
	PID     ipc.ClientProcessID
	Process ipc.InCopyHandle[*kernel.Process]
}

type openApplicationProxyOut struct {
	Proxy *ApplicationProxy
}

func (s *ApplicationProxyService) openApplicationProxy(_ context.Context, in openApplicationProxyIn) (openApplicationProxyOut, result.Result) {
	pid, res := s.verifyCaller(in)
	if res.IsError() {
		return s.reject(res)
	}

	record, ok := s.registry.Lookup(pid)
	if !ok {
		s.logger.Debug("No applet for process", zap.Uint64("pid", uint64(pid)))
		return s.reject(ResultNotFound)
	}

	if s.metrics != nil {
		s.metrics.IncProxiesOpened()
	}
	s.logger.Debug("Opened application proxy",
		zap.Uint64("pid", uint64(pid)),
		zap.String("applet", record.ID))

	return openApplicationProxyOut{
		Proxy: newApplicationProxy(s.registry, record.Ref()),
	}, result.Success
}

// verifyCaller checks that the handed process is the caller itself. The
// copied handle is released before returning.
func (s *ApplicationProxyService) verifyCaller(in openApplicationProxyIn) (kernel.ProcessID, result.Result) {
	defer in.Process.Release()

	process, err := in.Process.Get()
	if err != nil {
		s.logger.Warn("Unusable process handle", zap.Error(err))
		return 0, ResultInvalidHandle
	}

	pid := process.ProcessID()
	if pid != kernel.ProcessID(in.PID) {
		s.logger.Warn("Process handle does not belong to caller",
			zap.Uint64("handle_pid", uint64(pid)),
			zap.Uint64("client_pid", uint64(in.PID)))
		return 0, ResultInvalidHandle
	}
	return pid, result.Success
}

func (s *ApplicationProxyService) reject(res result.Result) (openApplicationProxyOut, result.Result) {
	if s.metrics != nil {
		s.metrics.RecordProxyRejection(res)
	}
	return openApplicationProxyOut{}, res
}
