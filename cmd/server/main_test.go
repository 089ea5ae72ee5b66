package main

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/tuning"
	"voxelforge.dev/internal/world"
)

// Shutdown can race the first tick; the completion channel must exist before
// the engine goroutine starts so the final wait never blocks on a nil channel.
func TestEngineRun_ShutdownClosesCompletionChannel(t *testing.T) {
	w := world.New(1337, catalogs.Default(), 8)
	eng := &engine{
		w:       w,
		tune:    tuning.Defaults(),
		saveDir: t.TempDir(),
		tick:    new(atomic.Uint64),
		log:     log.New(io.Discard, "", 0),
		done:    make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // shutdown requested before the loop ever runs
	go eng.run(ctx)

	select {
	case <-eng.done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not finish after shutdown")
	}
}

func TestEnvBool(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", false, false},
		{"", true, true},
		{"1", false, true},
		{"true", false, true},
		{"0", true, false},
		{"nonsense", true, true},
	}
	for _, c := range cases {
		t.Setenv("VF_TEST_FLAG", c.val)
		if got := envBool("VF_TEST_FLAG", c.def); got != c.want {
			t.Errorf("envBool(%q, %v) = %v, want %v", c.val, c.def, got, c.want)
		}
	}
}
