package am

import "github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"

var (
	ResultInvalidHandle = result.Define(result.ModuleKernel, 114, "InvalidHandle")
	ResultNotFound      = result.Define(result.ModuleAM, 2, "AppletNotFound")
	ResultAppletGone    = result.Define(result.ModuleAM, 22, "AppletTerminated")
)
