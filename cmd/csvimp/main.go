package main

import (
	"context"
	"os"

	"github.com/JonMunkholm/csvimp/internal/cli"
)

// Set with -ldflags "-X main.version=..." at build time.
var (
	version   string
	gitCommit string
	buildDate string
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.BuildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
	}))
}
