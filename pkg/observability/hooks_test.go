package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLayoutStart(ctx, "montage.dax", 40)
	p.OnLayoutComplete(ctx, "montage.dax", 5, time.Second, nil)
	p.OnReconstructStart(ctx, "s1", 100)
	p.OnReconstructComplete(ctx, "s1", 4, time.Second, nil)
	p.OnRenderComplete(ctx, "svg", 1024, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "series")
	c.OnCacheSet(ctx, "artifact", 1024)

	NoopStoreHooks{}.OnQuery(ctx, "sessions", 3, time.Millisecond, nil)

	s := NoopServerHooks{}
	s.OnRequest(ctx, "GET", "/sessions")
	s.OnResponse(ctx, "GET", "/sessions", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset() should restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	NewLogHooks(logger).Register()

	ctx := context.Background()
	Pipeline().OnLayoutComplete(ctx, "a.dax", 3, time.Millisecond, nil)
	Store().OnQuery(ctx, "entries", 0, time.Millisecond, errors.New("boom"))
	Cache().OnCacheHit(ctx, "layout")

	out := buf.String()
	for _, want := range []string{"layout done", "a.dax", "store entries failed", "boom", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }
