package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvconvert/internal/history"
	"github.com/google/uuid"
)

func newTestService(t *testing.T, store history.Store, cfg ServiceConfig) *Service {
	t.Helper()
	svc := NewService(store, cfg)
	def := NewDefinition("orders", testMapping())
	def.ExpectedHeader = []string{"a", "b", "c"}
	if err := svc.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return svc
}

type failingStore struct {
	history.Store
	calls int
}

func (f *failingStore) Record(context.Context, history.Run) error {
	f.calls++
	return errors.New("connection refused")
}

func TestService_Register(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	if err := svc.Register(NewDefinition("orders", testMapping())); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Register(duplicate) error = %v, want ErrConfiguration", err)
	}
	if err := svc.Register(NewDefinition("empty", NewMapping())); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Register(invalid) error = %v, want ErrConfiguration", err)
	}
	if err := svc.Register(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Register(nil) error = %v, want ErrConfiguration", err)
	}
	if err := svc.Register(NewDefinition("alpha", testMapping())); err != nil {
		t.Fatalf("Register(alpha) error = %v", err)
	}

	var names []string
	for _, def := range svc.Definitions() {
		names = append(names, def.Name)
	}
	if got := strings.Join(names, ","); got != "alpha,orders" {
		t.Errorf("Definitions() = %s, want alpha,orders", got)
	}

	if _, err := svc.Definition("missing"); !errors.Is(err, ErrUnknownDefinition) {
		t.Errorf("Definition(missing) error = %v, want ErrUnknownDefinition", err)
	}
}

func TestService_Convert(t *testing.T) {
	store := history.NewMemoryStore(0)
	svc := newTestService(t, store, ServiceConfig{})

	var completed int
	var out bytes.Buffer
	ctx := ContextWithIPAddress(context.Background(), "10.0.0.7")

	res, err := svc.Convert(ctx, ConvertRequest{
		Mapping:    "orders",
		Source:     strings.NewReader("a;b;c\nx;y;z\n1;2;3\n"),
		Target:     &out,
		SourceName: "in.csv",
		TargetName: "out.csv",
		Hooks:      Hooks{Completed: func(saved int) { completed = saved }},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if got, want := out.String(), "B;A\ny;x\n2;1\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if want := (RunCounters{Processed: 3, Saved: 3}); res.Counters != want {
		t.Errorf("Counters = %+v, want %+v", res.Counters, want)
	}
	if completed != 3 {
		t.Errorf("completed hook got %d, want 3", completed)
	}
	if res.BytesRead != int64(len("a;b;c\nx;y;z\n1;2;3\n")) {
		t.Errorf("BytesRead = %d", res.BytesRead)
	}

	run, err := svc.Run(context.Background(), res.RunID.String())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Status != history.StatusSucceeded || run.Saved != 3 || run.IPAddress != "10.0.0.7" || run.SourceName != "in.csv" {
		t.Errorf("recorded run = %+v", run)
	}
	if svc.Limiter().Active() != 0 {
		t.Errorf("Active() = %d after run, want 0", svc.Limiter().Active())
	}
}

func TestService_ConvertFailureIsRecorded(t *testing.T) {
	store := history.NewMemoryStore(0)
	svc := newTestService(t, store, ServiceConfig{})

	var out bytes.Buffer
	res, err := svc.Convert(context.Background(), ConvertRequest{
		Mapping: "orders",
		Source:  strings.NewReader("a;c;b\nx;y;z\n"),
		Target:  &out,
	})
	if !errors.Is(err, ErrInvalidSourceHeader) {
		t.Fatalf("Convert() error = %v, want ErrInvalidSourceHeader", err)
	}
	if res == nil {
		t.Fatal("Convert() result is nil for a started run")
	}

	runs, err := svc.Runs(context.Background(), history.ListOptions{Status: history.StatusFailed})
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Runs() = %d runs, want 1", len(runs))
	}
	if runs[0].ID != res.RunID || runs[0].ErrorCode != "HDR001" || runs[0].ErrorMessage == "" {
		t.Errorf("recorded run = %+v", runs[0])
	}
}

func TestService_ConvertRejectsBeforeRun(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	tests := []struct {
		name    string
		req     ConvertRequest
		wantErr error
	}{
		{name: "unknown mapping", req: ConvertRequest{Mapping: "nope", Source: strings.NewReader(""), Target: &bytes.Buffer{}}, wantErr: ErrUnknownDefinition},
		{name: "missing source", req: ConvertRequest{Mapping: "orders", Target: &bytes.Buffer{}}, wantErr: ErrConfiguration},
		{name: "missing target", req: ConvertRequest{Mapping: "orders", Source: strings.NewReader("")}, wantErr: ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Convert(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("Convert() result = %+v, want nil", res)
			}
		})
	}
}

func TestService_ConvertBusy(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{MaxConcurrentRuns: 1, MaxWaitTime: 20 * time.Millisecond})

	if err := svc.Limiter().Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer svc.Limiter().Release()

	res, err := svc.Convert(context.Background(), ConvertRequest{
		Mapping: "orders",
		Source:  strings.NewReader("a;b;c\n"),
		Target:  &bytes.Buffer{},
	})
	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("Convert() error = %v, want ErrTooManyRuns", err)
	}
	if res != nil {
		t.Errorf("Convert() result = %+v, want nil", res)
	}
}

func TestService_ConvertCancelled(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	var src strings.Builder
	src.WriteString("a;b;c\n")
	for i := range ContextCheckInterval + 10 {
		fmt.Fprintf(&src, "%d;%d;%d\n", i, i, i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := svc.Convert(ctx, ConvertRequest{
		Mapping: "orders",
		Source:  strings.NewReader(src.String()),
		Target:  &bytes.Buffer{},
		Hooks: Hooks{BeforeRow: func(processed int, _ []string) (bool, error) {
			if processed == 2 {
				cancel()
			}
			return true, nil
		}},
	})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrHook) {
		t.Fatalf("Convert() error = %v, want ErrHook wrapping context.Canceled", err)
	}
	if res.Counters.Processed != ContextCheckInterval {
		t.Errorf("Processed = %d, want %d", res.Counters.Processed, ContextCheckInterval)
	}

	run, err := svc.Run(context.Background(), res.RunID.String())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.ErrorCode != "RUN002" {
		t.Errorf("ErrorCode = %q, want RUN002", run.ErrorCode)
	}
}

func TestService_HistoryFailureNotReturned(t *testing.T) {
	store := &failingStore{}
	svc := newTestService(t, store, ServiceConfig{})

	_, err := svc.Convert(context.Background(), ConvertRequest{
		Mapping: "orders",
		Source:  strings.NewReader("a;b;c\n"),
		Target:  &bytes.Buffer{},
	})
	if err != nil {
		t.Errorf("Convert() error = %v, want nil", err)
	}
	if store.calls != 1 {
		t.Errorf("Record called %d times, want 1", store.calls)
	}
}

func TestService_Run(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	tests := []struct {
		name string
		id   string
	}{
		{name: "malformed id", id: "not-a-uuid"},
		{name: "unknown id", id: uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Run(context.Background(), tt.id); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("Run(%q) error = %v, want ErrRunNotFound", tt.id, err)
			}
		})
	}
}

func TestService_Shutdown(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
