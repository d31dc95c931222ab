package main

import (
	_ "go.uber.org/automaxprocs"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/tripdash/cmd/tripdash/app"
)

func main() {
	ctx := genericapiserver.SetupSignalContext()
	app.NewApp().Run(ctx)
}
