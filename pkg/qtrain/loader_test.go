package qtrain

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quatton/qwex-trainer/pkg/kv"
	"github.com/quatton/qwex-trainer/pkg/qart"
	"github.com/quatton/qwex-trainer/pkg/qerr"
)

func TestStaticLoaderIgnoresSource(t *testing.T) {
	loader := NewStaticLoader()
	ctx := context.Background()

	for _, ref := range []string{"cfg.yaml", "does/not/exist.yaml", "s3://bucket/key"} {
		got, err := loader.Load(ctx, ref)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", ref, err)
		}
		if diff := cmp.Diff(DefaultArguments(), got); diff != "" {
			t.Errorf("Load(%q) mismatch (-want +got):\n%s", ref, diff)
		}
	}
}

func TestLoadersRejectInvalidRef(t *testing.T) {
	ctx := context.Background()
	loaders := map[string]ConfigLoader{
		"static": NewStaticLoader(),
		"source": NewSourceLoader(),
	}

	for name, l := range loaders {
		for _, ref := range []string{"", "   ", "cfg\x00.yaml"} {
			_, err := l.Load(ctx, ref)
			if !qerr.IsCode(err, qerr.CodeInvalidArgument) {
				t.Errorf("%s Load(%q) = %v, want invalid_argument", name, ref, err)
			}
		}
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{"chemprop_run/config/config.yaml", Ref{SchemeFile, "chemprop_run/config/config.yaml"}, false},
		{"file:///etc/trainer.yaml", Ref{SchemeFile, "/etc/trainer.yaml"}, false},
		{"S3://models/cfg.json", Ref{SchemeS3, "models/cfg.json"}, false},
		{"kv://baseline", Ref{SchemeKV, "baseline"}, false},
		{"://nothing", Ref{}, true},
		{"kv://", Ref{}, true},
	}

	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRef(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSourceLoaderFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return p
	}

	full := write("full.yaml", "total_round: 30\nstart_round: 2\ndata_size: 2048\nmode: finetune\n")
	partial := write("partial.yaml", "total_round: 4\nlearning_rate: 0.01\n")
	jsonDoc := write("cfg.json", `{"data_size": 9, "mode": "eval"}`)
	quoted := write("quoted.yaml", "total_round: \"12\"\n")
	empty := write("empty.yaml", "")

	loader := NewSourceLoader()
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		want ArgumentSet
	}{
		{"full document", full, ArgumentSet{TotalRound: 30, StartRound: 2, DataSize: 2048, Mode: "finetune"}},
		{"partial document keeps defaults", partial, ArgumentSet{TotalRound: 4, StartRound: 0, DataSize: 100, Mode: "default"}},
		{"json by extension", jsonDoc, ArgumentSet{TotalRound: 10, StartRound: 0, DataSize: 9, Mode: "eval"}},
		{"file scheme", "file://" + full, ArgumentSet{TotalRound: 30, StartRound: 2, DataSize: 2048, Mode: "finetune"}},
		{"quoted integers", quoted, ArgumentSet{TotalRound: 12, StartRound: 0, DataSize: 100, Mode: "default"}},
		{"empty document", empty, DefaultArguments()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.Load(ctx, tt.ref)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSourceLoaderFileRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "chemprop_run", "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "chemprop_run", "config", "config.yaml"), []byte("mode: scaffold\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(WithSource(SchemeFile, FileSource{Root: dir}))
	got, err := loader.Load(context.Background(), DefaultConfigRef)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Mode != "scaffold" {
		t.Errorf("Mode = %q, want scaffold", got.Mode)
	}
}

func TestFileSourceConfinedToRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "configs")
	if err := os.MkdirAll(filepath.Join(root, "runs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "runs", "a.yaml"), []byte("data_size: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(parent, "secret.yaml")
	if err := os.WriteFile(outside, []byte("data_size: 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(WithSource(SchemeFile, FileSource{Root: root}))
	ctx := context.Background()

	for _, ref := range []string{"runs/a.yaml", "./runs/../runs/a.yaml", "file://runs/a.yaml"} {
		got, err := loader.Load(ctx, ref)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", ref, err)
		}
		if got.DataSize != 8 {
			t.Errorf("Load(%q).DataSize = %d, want 8", ref, got.DataSize)
		}
	}

	tests := []struct {
		name string
		ref  string
	}{
		{"absolute path", outside},
		{"absolute file ref", "file://" + outside},
		{"parent escape", "../secret.yaml"},
		{"nested escape", "runs/../../secret.yaml"},
		{"system file", "/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(ctx, tt.ref)
			if !qerr.IsCode(err, qerr.CodeInvalidArgument) {
				t.Errorf("Load(%q) = %v, want code %s", tt.ref, err, qerr.CodeInvalidArgument)
			}
		})
	}
}

func TestSourceLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return p
	}
	badYAML := write("bad.yaml", "total_round: [1, 2\n")
	wrongType := write("wrong.yaml", "total_round: many\n")
	negative := write("negative.yaml", "data_size: -5\n")
	fractional := write("float.yaml", "total_round: 5.7\n")
	fractionalJSON := write("float.json", `{"data_size": 2.5}`)
	boolean := write("bool.yaml", "data_size: true\n")
	hex := write("hex.yaml", "start_round: \"0x10\"\n")
	numericMode := write("modeint.yaml", "mode: 7\n")

	loader := NewSourceLoader()
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		code qerr.Code
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), qerr.CodeNotFound},
		{"unparsable", badYAML, qerr.CodeInvalidConfig},
		{"wrong type", wrongType, qerr.CodeInvalidConfig},
		{"negative value", negative, qerr.CodeInvalidConfig},
		{"fractional number", fractional, qerr.CodeInvalidConfig},
		{"fractional json number", fractionalJSON, qerr.CodeInvalidConfig},
		{"boolean count", boolean, qerr.CodeInvalidConfig},
		{"hex string count", hex, qerr.CodeInvalidConfig},
		{"numeric mode", numericMode, qerr.CodeInvalidConfig},
		{"unregistered scheme", "s3://bucket/cfg.yaml", qerr.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(ctx, tt.ref)
			if !qerr.IsCode(err, tt.code) {
				t.Errorf("Load(%q) = %v, want code %s", tt.ref, err, tt.code)
			}
		})
	}
}

func TestSourceLoaderKV(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Set(ctx, kv.ConfigKey("baseline"), []byte("total_round: 3\nmode: kv\n"), 0); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(WithSource(SchemeKV, KVSource{Store: store}))

	got, err := loader.Load(ctx, "kv://baseline")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := ArgumentSet{TotalRound: 3, StartRound: 0, DataSize: 100, Mode: "kv"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	if _, err := loader.Load(ctx, "kv://missing"); !qerr.IsCode(err, qerr.CodeNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

// fakeObjectStore serves documents from memory keyed by "bucket/key".
type fakeObjectStore struct {
	defaultBucket string
	objects       map[string]string
	err           error
}

func (f *fakeObjectStore) Open(_ context.Context, bucket, key string) (io.ReadCloser, *qart.Object, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if bucket == "" {
		bucket = f.defaultBucket
	}
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, nil, qart.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), &qart.Object{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func TestSourceLoaderObjectStore(t *testing.T) {
	store := &fakeObjectStore{
		defaultBucket: "configs",
		objects: map[string]string{
			"models/chemprop.json": `{"total_round": 50}`,
			"configs/quick.yaml":   "data_size: 10\n",
		},
	}
	loader := NewSourceLoader(WithSource(SchemeS3, ObjectSource{Store: store}))
	ctx := context.Background()

	got, err := loader.Load(ctx, "s3://models/chemprop.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.TotalRound != 50 || got.DataSize != 100 {
		t.Errorf("unexpected arguments %+v", got)
	}

	got, err = loader.Load(ctx, "s3://quick.yaml")
	if err != nil {
		t.Fatalf("Load from default bucket failed: %v", err)
	}
	if got.DataSize != 10 {
		t.Errorf("DataSize = %d, want 10", got.DataSize)
	}

	if _, err := loader.Load(ctx, "s3://models/missing.yaml"); !qerr.IsCode(err, qerr.CodeNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}

	if _, err := loader.Load(ctx, "s3://models/"); !qerr.IsCode(err, qerr.CodeInvalidArgument) {
		t.Errorf("expected invalid_argument for missing key, got %v", err)
	}

	boom := errors.New("connection refused")
	store.err = boom
	if _, err := loader.Load(ctx, "s3://models/chemprop.json"); !errors.Is(err, boom) {
		t.Errorf("expected transport error to propagate, got %v", err)
	}
}

func TestSourceLoaderSchemes(t *testing.T) {
	loader := NewSourceLoader(
		WithSource(SchemeKV, KVSource{Store: kv.NewMemoryStore()}),
	)
	if diff := cmp.Diff([]string{SchemeFile, SchemeKV}, loader.Schemes()); diff != "" {
		t.Errorf("Schemes() mismatch (-want +got):\n%s", diff)
	}
}
