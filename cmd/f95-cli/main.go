package main

import (
	"github.com/jj-development3dx/hz-publisher/cmd/f95-cli/commands"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"
	"github.com/jj-development3dx/hz-publisher/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "f95-cli")
	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
