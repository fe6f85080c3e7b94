package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/2x3systems/densitytwins/cmd/dtwins/app"
	"github.com/plan-systems/klog"
)

func main() {

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "1")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	cmd := app.New()
	cmd.PersistentFlags().AddGoFlagSet(fset)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.ExecuteContext(ctx)
	stop()

	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
