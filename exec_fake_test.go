package runnerdash

import (
	"context"
	"strings"
	"sync"
)

// fakeCall records one external invocation issued through the fake execer
type fakeCall struct {
	Dir  string
	Name string
	Args []string
}

func (c fakeCall) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// fakeExecer is a scripted stand-in for the external-process layer. Every
// call is recorded so tests can assert the bounded-call and zero-spawn
// properties; the handler decides each call's outcome.
type fakeExecer struct {
	mu     sync.Mutex
	runs   []fakeCall
	starts []fakeCall

	// handler scripts Run outcomes by full command line; a nil handler
	// answers every call with a clean zero exit
	handler func(call fakeCall) (ExecResult, error)

	// startErr fails Start calls when set
	startErr error
}

func (f *fakeExecer) Run(_ context.Context, dir, name string, args ...string) (ExecResult, error) {
	call := fakeCall{Dir: dir, Name: name, Args: args}
	f.mu.Lock()
	f.runs = append(f.runs, call)
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		return handler(call)
	}
	return ExecResult{}, nil
}

func (f *fakeExecer) Start(dir, name string, args ...string) error {
	f.mu.Lock()
	f.starts = append(f.starts, fakeCall{Dir: dir, Name: name, Args: args})
	f.mu.Unlock()
	return f.startErr
}

func (f *fakeExecer) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func (f *fakeExecer) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

// commandLines returns every recorded Run as a flat command line
func (f *fakeExecer) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.runs))
	for _, c := range f.runs {
		lines = append(lines, c.String())
	}
	return lines
}
