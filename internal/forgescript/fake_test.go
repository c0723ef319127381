// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

var errFakeSyntax = errors.New("syntax error near 'end'")

type (
	// fakeInterp treats sources containing "syntax error" as uncompilable and
	// sources containing "fail" as raising at run time.
	fakeInterp struct {
		envErr      error
		envAttempts int
		next        EnvHandle
		live        map[EnvHandle]bool
		execs       []string
		registrar   Registrar
		onExec      func(ctx context.Context)
	}

	fakeChunk struct {
		name string
		src  []byte
	}

	fakeCallback struct {
		name string
		fn   func() error
	}
)

func newFakeInterp() *fakeInterp {
	return &fakeInterp{live: make(map[EnvHandle]bool)}
}

func (f *fakeInterp) Compile(name string, src []byte) (Chunk, error) {
	if bytes.Contains(src, []byte("syntax error")) {
		return nil, errFakeSyntax
	}
	return &fakeChunk{name: name, src: src}, nil
}

func (f *fakeInterp) NewEnvironment() (EnvHandle, error) {
	f.envAttempts++
	if f.envErr != nil {
		return NoEnv, f.envErr
	}
	f.next++
	f.live[f.next] = true
	return f.next, nil
}

func (f *fakeInterp) ReleaseEnvironment(h EnvHandle) {
	delete(f.live, h)
}

func (f *fakeInterp) Exec(ctx context.Context, c Chunk, env EnvHandle) error {
	ch := c.(*fakeChunk)
	if !f.live[env] {
		return errors.New("dead environment")
	}
	f.execs = append(f.execs, ch.name)
	if f.onExec != nil {
		f.onExec(ctx)
	}
	if bytes.Contains(ch.src, []byte("fail")) {
		return errors.New("runtime failure")
	}
	return nil
}

func (f *fakeInterp) Call(_ context.Context, cb Callback) error {
	return cb.(*fakeCallback).fn()
}

func (f *fakeInterp) SetRegistrar(r Registrar) {
	f.registrar = r
}

func (c *fakeChunk) ChunkName() string       { return c.name }
func (c *fakeCallback) CallbackName() string { return c.name }

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
