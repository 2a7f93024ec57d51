package main

import (
	"errors"
	"strings"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/job"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitUsage      = 3
	exitSource     = 4
	exitStorage    = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// classify attaches the exit code matching a fatal run error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, job.ErrSchemaMismatch):
		return withCode(exitValidation, err)
	case errors.Is(err, job.ErrSourceRead):
		return withCode(exitSource, err)
	case errors.Is(err, job.ErrStorage):
		return withCode(exitStorage, err)
	}
	var de *storage.DedupError
	if errors.As(err, &de) {
		return withCode(exitStorage, err)
	}
	return err
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return exitUsage
	}
	return exitFailure
}
