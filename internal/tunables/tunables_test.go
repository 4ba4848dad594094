package tunables

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()

	got, err := Load(filepath.Join(dir, "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load on missing file returned error: %v", err)
	}

	if got != (Tunables{}) {
		t.Fatalf("Load on missing file = %+v, want zero value", got)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.json")

	if err := os.WriteFile(path, []byte(`{"verbose":true,"dump_interval_seconds":5}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !got.Verbose || got.DumpInterval() != 5*time.Second {
		t.Fatalf("Load = %+v, want verbose=true dump_interval=5s", got)
	}
}

// TestWatchReloadsOnWrite checks that rewriting the tunables file flips the
// applied verbosity without restarting anything.
func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.json")

	if err := os.WriteFile(path, []byte(`{"verbose":false}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	applied := make(chan Tunables, 4)

	stop, err := Watch(path, func(tv Tunables) { applied <- tv })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	defer stop()

	select {
	case tv := <-applied:
		if tv.Verbose {
			t.Fatalf("initial apply = %+v, want verbose=false", tv)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not apply the initial file contents")
	}

	if err := os.WriteFile(path, []byte(`{"verbose":true}`), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	select {
	case tv := <-applied:
		if !tv.Verbose {
			t.Fatalf("reloaded apply = %+v, want verbose=true", tv)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not reload after the file changed")
	}
}
