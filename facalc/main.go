package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/fa/cmd"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

func main() {
	name := path.Base(os.Args[0])
	cmd.Completion().Complete(name)

	log.DefaultLogger = log.Logger{
		Level:      log.InfoLevel,
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{Writer: os.Stderr, ColorOutput: true},
	}

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
