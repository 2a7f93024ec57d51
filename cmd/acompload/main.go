// Command acompload loads the national purchase-order tracking workbook into
// the reporting database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/config"

	// register all backends with the storage factory; DB_DRIVER picks one.
	_ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/all"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], &app{
		environ: os.Environ(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	})
	cancel()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, a *app) int {
	environ, envFile, err := config.Environ(a.environ, a.envFile)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	cfg, err := config.FromEnv(environ)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	cfg.EnvFile = envFile
	a.cfg = cfg

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.stderr, err.Error())
		return exitCode(err)
	}
	return exitOK
}

// app carries process wiring shared by the sub-commands.
type app struct {
	environ []string
	envFile config.EnvFileOptions
	stdout  io.Writer
	stderr  io.Writer

	cfg *config.Config
	log *logrus.Logger
}
