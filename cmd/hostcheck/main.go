package main

import (
	"errors"
	"os"

	"github.com/hnrobert/hostcheck/internal/logger"
)

func main() {
	err := newRootCommand().Execute()
	logger.Close()
	if err == nil {
		return
	}
	logger.Error("%v", err)
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(exitConfig)
}
