package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/snapshot"
)

func recorderStub(t *testing.T, failFirst *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(snapshot.RecordingMeta{FrameCount: 5})
	})
	mux.HandleFunc("/frames/2", func(w http.ResponseWriter, r *http.Request) {
		if failFirst != nil && failFirst.Add(-1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(snapshot.RawFrame{
			Index: 2,
			Processes: []snapshot.ProcessSnapshot{{
				ProcessID: "p",
				Entities:  []snapshot.RawEntity{{LocalID: "t"}},
			}},
		})
	})
	return httptest.NewServer(mux)
}

func TestHTTPSource_MetaAndFrame(t *testing.T) {
	srv := recorderStub(t, nil)
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}

	meta, err := src.Meta(context.Background())
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if meta.FrameCount != 5 {
		t.Errorf("FrameCount = %d, want 5", meta.FrameCount)
	}

	f, err := src.Frame(context.Background(), 2)
	if err != nil {
		t.Fatalf("Frame(2): %v", err)
	}
	if f.Index != 2 || len(f.Processes) != 1 {
		t.Errorf("frame = %+v, want index 2 with 1 process", f)
	}
}

func TestHTTPSource_NotFound(t *testing.T) {
	srv := recorderStub(t, nil)
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}

	_, err = src.Frame(context.Background(), 99)
	if !errors.Is(err, errors.ErrCodeFrameNotFound) {
		t.Errorf("Frame(99) error = %v, want FRAME_NOT_FOUND", err)
	}
}

func TestHTTPSource_RetriesTransientFailures(t *testing.T) {
	var fails atomic.Int64
	fails.Store(1) // first request 503s, second succeeds
	srv := recorderStub(t, &fails)
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}

	if _, err := src.Frame(context.Background(), 2); err != nil {
		t.Errorf("Frame(2) after transient 503 = %v, want success", err)
	}
}

func TestHTTPSource_InvalidURL(t *testing.T) {
	if _, err := NewHTTPSource("ftp://recorder", time.Second); err == nil {
		t.Error("NewHTTPSource accepted a non-http URL")
	}
}
