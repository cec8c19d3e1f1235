package cmd

import (
	"context"
	"io"
	"os"
)

type ioKey struct{}

type errorFormatKey struct{}

type ioState struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func withIO(ctx context.Context, in io.Reader, out, err io.Writer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ioKey{}, ioState{in: in, out: out, err: err})
}

func ioFromContext(ctx context.Context) ioState {
	var state ioState
	if ctx != nil {
		state, _ = ctx.Value(ioKey{}).(ioState)
	}
	if state.in == nil {
		state.in = os.Stdin
	}
	if state.out == nil {
		state.out = os.Stdout
	}
	if state.err == nil {
		state.err = os.Stderr
	}
	return state
}

func stdinFromContext(ctx context.Context) io.Reader { return ioFromContext(ctx).in }

func stdoutFromContext(ctx context.Context) io.Writer { return ioFromContext(ctx).out }

func stderrFromContext(ctx context.Context) io.Writer { return ioFromContext(ctx).err }

func withErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

func errorFormatFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(errorFormatKey{}).(string); ok {
		return v
	}
	return ""
}
