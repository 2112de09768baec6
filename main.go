package main

import (
	"os"

	"github.com/estudosdevops/fabricctl/cmd"
	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/logger"
)

func main() {
	root := cmd.NewRootCommand(sfutil.NewFactory())
	if err := cmd.Execute(root, os.Args[1:]); err != nil {
		logger.Get().Error(err.Error())
		os.Exit(cmd.ExitCode(err))
	}
}
