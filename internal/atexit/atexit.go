// Package atexit keeps a process-wide set of files that should be removed when the process exits.
//
// It is a secondary safety net for files whose owner is never closed. Go has no hook that runs on
// every exit path, so Run must be called explicitly (typically deferred in main) and HandleSignals
// covers termination by SIGINT or SIGTERM. Files removed by their owner should be deregistered.
package atexit

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/vfsr/vfsr/logging"
)

var log = logging.Module("vfsr/atexit")

//nolint:gochecknoglobals
var global = &registry{}

type registry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// Register schedules path for removal at exit.
func Register(path string) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.paths == nil {
		global.paths = make(map[string]struct{})
	}

	global.paths[path] = struct{}{}
}

// Deregister cancels the removal of path at exit.
func Deregister(path string) {
	global.mu.Lock()
	defer global.mu.Unlock()

	delete(global.paths, path)
}

// Pending returns the sorted list of paths scheduled for removal.
func Pending() []string {
	global.mu.Lock()
	defer global.mu.Unlock()

	result := make([]string, 0, len(global.paths))
	for p := range global.paths {
		result = append(result, p)
	}

	sort.Strings(result)

	return result
}

// Run removes every registered path and clears the registry. Missing files are ignored.
func Run(ctx context.Context) {
	global.mu.Lock()
	paths := global.paths
	global.paths = nil
	global.mu.Unlock()

	for p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log(ctx).Debugf("unable to remove %v at exit: %v", p, err)
		}
	}
}

// HandleSignals runs onSignal followed by Run and exits the process with the given code
// when SIGINT or SIGTERM is received. The returned function stops listening.
func HandleSignals(ctx context.Context, exitCode int, onSignal func()) (stop func()) {
	s := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(s, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-s:
			log(ctx).Infof("received %v, cleaning up", sig)

			if onSignal != nil {
				onSignal()
			}

			Run(ctx)
			os.Exit(exitCode)

		case <-done:
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			signal.Stop(s)
			close(done)
		})
	}
}
