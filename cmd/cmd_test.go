package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hnprep/internal/config"
	"hnprep/internal/db"
	"hnprep/internal/graph"
	"hnprep/internal/logger"
)

const fixtureJSONL = `{"id": 1, "type": "story", "title": "Dropped thread"}
{"id": 2, "parent": 1, "type": "comment", "text": "dropped"}
{"id": 3, "type": "story", "title": "T3", "text": "<i>hi</i>"}
{"id": 4, "parent": 3, "type": "comment", "text": "a<p>b"}
{"id": 6, "parent": 4, "type": "comment", "text": "&amp;"}
{"id": 7, "parent": 28, "type": "comment", "text": "<a href=\"https://x.com\">x</a>"}
{"id": 8, "parent": 5, "type": "comment", "text": "dropped too"}
{"id": 9, "parent": 3, "type": "comment", "text": "flagged", "dead": true}
`

// resetFlags restores every flag to its default so commands can run repeatedly in one process
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("HNPREP_DB", "")
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCLI_ImportPrepareRuns(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	outFile := filepath.Join(dir, "out.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)

	out, err := run(t, "import", itemsFile, "--db", dbFile)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 8 items (8 in database)") {
		t.Errorf("unexpected import output: %q", out)
	}

	if _, err := run(t, "prepare", "--db", dbFile, "--out", outFile, "--no-shuffle"); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	got, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"text":"a\n\nb","meta":{"id":4}}` + "\n" +
		`{"text":"&","meta":{"id":6}}` + "\n" +
		`{"text":"https://x.com","meta":{"id":7}}` + "\n"
	if string(got) != want {
		t.Errorf("prepare output:\n%s\nwant:\n%s", got, want)
	}

	out, err = run(t, "runs", "--db", dbFile, "--json")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs []db.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decoding runs: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	r := runs[0]
	if r.Salt != "hnbooks" || r.MaxBucket != 50 || r.Seed != 7191 {
		t.Errorf("run parameters = %+v", r)
	}
	if r.InputCount != 7 || r.OutputCount != 3 {
		t.Errorf("run counts input=%d output=%d, want 7 and 3", r.InputCount, r.OutputCount)
	}
	if r.OutputPath != outFile {
		t.Errorf("run output path = %q", r.OutputPath)
	}
}

func TestCLI_PrepareConfigAndFlagPrecedence(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	cfgFile := filepath.Join(dir, "hnprep.toml")
	writeFile(t, itemsFile, fixtureJSONL)
	writeFile(t, cfgFile, "[prepare]\nmax_bucket = 100\nshuffle = false\n")

	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "prepare", "--db", dbFile, "--config", cfgFile, "--no-record")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Errorf("config max_bucket=100 should keep all 5 children, got %d lines:\n%s", len(lines), out)
	}

	out, err = run(t, "prepare", "--db", dbFile, "--config", cfgFile, "--no-record", "--max-bucket", "10")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if strings.TrimSpace(out) != `{"text":"a\n\nb","meta":{"id":4}}`+"\n"+`{"text":"&","meta":{"id":6}}` {
		t.Errorf("flag should override config, got:\n%s", out)
	}

	if _, err := run(t, "prepare", "--db", dbFile, "--max-bucket", "101"); err == nil {
		t.Error("expected error for --max-bucket 101")
	}

	out, err = run(t, "runs", "--db", dbFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("--no-record runs should not be listed, got %q", out)
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)
	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "analyze", "--db", dbFile, "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var report struct {
		TotalItems   int     `json:"total_items"`
		TotalThreads int     `json:"total_threads"`
		OrphanCount  int     `json:"orphan_count"`
		OrphanIDs    []int64 `json:"orphan_ids"`
		KeptThreads  int     `json:"kept_threads"`
		KeptChildren int     `json:"kept_children"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if report.TotalItems != 7 || report.TotalThreads != 4 {
		t.Errorf("items=%d threads=%d, want 7 and 4", report.TotalItems, report.TotalThreads)
	}
	if report.OrphanCount != 2 {
		t.Errorf("orphans = %d %v, want 2 (items 7 and 8)", report.OrphanCount, report.OrphanIDs)
	}
	if report.KeptThreads != 2 || report.KeptChildren != 3 {
		t.Errorf("kept threads=%d children=%d, want 2 and 3", report.KeptThreads, report.KeptChildren)
	}

	out, err = run(t, "analyze", "--db", dbFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "THREADS") || !strings.Contains(out, "bucket < 50: 2 of 4 threads") {
		t.Errorf("unexpected human-readable report:\n%s", out)
	}
}

func TestCLI_CycleIsReported(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL+
		`{"id": 10, "parent": 11, "type": "comment"}`+"\n"+
		`{"id": 11, "parent": 10, "type": "comment"}`+"\n")
	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "analyze", "--db", dbFile)
	if !errors.Is(err, graph.ErrCyclicRelation) {
		t.Fatalf("expected cyclic relation error, got %v", err)
	}
	if !strings.Contains(out, "CYCLES") || !strings.Contains(out, "[10 11]") {
		t.Errorf("cycle groups not printed:\n%s", out)
	}

	_, err = run(t, "prepare", "--db", dbFile, "--no-record")
	if !errors.Is(err, graph.ErrCyclicRelation) {
		t.Errorf("prepare should fail on a cycle, got %v", err)
	}
}

func TestDiscoverDB_FlagMissing(t *testing.T) {
	setupCLI(t)
	resetFlags(rootCmd)
	dbPath = filepath.Join(t.TempDir(), "absent.db")
	defer func() { dbPath = "" }()
	if _, err := DiscoverDB(); err == nil || !strings.Contains(err.Error(), "--db path") {
		t.Errorf("expected --db not found error, got %v", err)
	}
}

func TestDiscoverDB_EnvWins(t *testing.T) {
	dir := setupCLI(t)
	envDB := filepath.Join(dir, "env.db")
	writeFile(t, envDB, "")
	t.Setenv("HNPREP_DB", envDB)
	resetFlags(rootCmd)
	dbPath = filepath.Join(dir, "flag.db")
	defer func() { dbPath = "" }()

	got, err := DiscoverDB()
	if err != nil {
		t.Fatal(err)
	}
	if got != envDB {
		t.Errorf("DiscoverDB = %q, want %q", got, envDB)
	}
}

func countItems(t *testing.T, path string) int {
	t.Helper()
	d, err := db.OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	n, err := d.CountItems(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCLI_ImportCreatesRequestedDB(t *testing.T) {
	dir := setupCLI(t)
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)

	// an existing database found by walking up must not capture the import
	walked := filepath.Join(dir, dbFileName)
	writeFile(t, walked, "")
	t.Chdir(dir)

	envDB := filepath.Join(dir, "fresh.db")
	t.Setenv("HNPREP_DB", envDB)
	if _, err := run(t, "import", itemsFile); err != nil {
		t.Fatalf("import with HNPREP_DB: %v", err)
	}
	if got := countItems(t, envDB); got != 8 {
		t.Errorf("HNPREP_DB database has %d items, want 8", got)
	}

	t.Setenv("HNPREP_DB", "")
	flagDB := filepath.Join(dir, "flag.db")
	if _, err := run(t, "import", itemsFile, "--db", flagDB); err != nil {
		t.Fatalf("import with --db: %v", err)
	}
	if got := countItems(t, flagDB); got != 8 {
		t.Errorf("--db database has %d items, want 8", got)
	}

	cfgDB := filepath.Join(dir, "configured.db")
	cfgFile := filepath.Join(dir, "hnprep.toml")
	writeFile(t, cfgFile, "db = "+strconv.Quote(cfgDB)+"\n")
	if _, err := run(t, "import", itemsFile, "--config", cfgFile); err != nil {
		t.Fatalf("import with config db: %v", err)
	}
	if got := countItems(t, cfgDB); got != 8 {
		t.Errorf("configured database has %d items, want 8", got)
	}

	if info, err := os.Stat(walked); err != nil || info.Size() != 0 {
		t.Errorf("walked-up database should be untouched, stat = %v, %v", info, err)
	}
}

func TestCLI_ImportDefaultsToWorkingDir(t *testing.T) {
	dir := setupCLI(t)
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	if _, err := run(t, "import", itemsFile); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := countItems(t, filepath.Join(dir, dbFileName)); got != 8 {
		t.Errorf("default database has %d items, want 8", got)
	}
}

func TestCLI_AnalyzeRejectsMaxBucketOutOfRange(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)
	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"101", "-1"} {
		_, err := run(t, "analyze", "--db", dbFile, "--max-bucket", v)
		if err == nil || !strings.Contains(err.Error(), "--max-bucket must be in [0, 100]") {
			t.Errorf("--max-bucket %s: expected range error, got %v", v, err)
		}
	}
	if _, err := run(t, "analyze", "--db", dbFile, "--max-bucket", "100"); err != nil {
		t.Errorf("--max-bucket 100 should be accepted: %v", err)
	}
}

func TestCLI_Show(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)
	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id     string
		root   int64
		bucket int
		kept   bool
		text   string
	}{
		{"6", 3, 4, true, "&"},
		{"7", 28, 16, true, "https://x.com"},
		{"2", 1, 55, false, "dropped"},
		{"3", 3, 4, false, "T3\n\nhi"},
		{"9", 3, 4, false, "flagged"},
	}
	for _, tt := range tests {
		out, err := run(t, "show", tt.id, "--db", dbFile, "--json")
		if err != nil {
			t.Fatalf("show %s: %v", tt.id, err)
		}
		var got showOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decoding show %s: %v\n%s", tt.id, err, out)
		}
		if got.Root != tt.root || got.Bucket != tt.bucket || got.Kept != tt.kept || got.Text != tt.text {
			t.Errorf("show %s = %+v, want root=%d bucket=%d kept=%v text=%q",
				tt.id, got, tt.root, tt.bucket, tt.kept, tt.text)
		}
	}

	out, err := run(t, "show", "4", "--db", dbFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Root: 3  Bucket: 4  Kept: yes (bucket < 50)") || !strings.Contains(out, "a\n\nb") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	if _, err := run(t, "show", "404", "--db", dbFile); !errors.Is(err, db.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCLI_ShowCycle(t *testing.T) {
	dir := setupCLI(t)
	dbFile := filepath.Join(dir, "hn.db")
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, `{"id": 10, "parent": 11, "type": "comment"}`+"\n"+
		`{"id": 11, "parent": 10, "type": "comment"}`+"\n")
	if _, err := run(t, "import", itemsFile, "--db", dbFile); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "show", "10", "--db", dbFile); !errors.Is(err, graph.ErrCyclicRelation) {
		t.Errorf("expected cyclic relation error, got %v", err)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	dir := setupCLI(t)
	path := filepath.Join(dir, "hnprep.toml")

	out, err := run(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("unexpected output %q", out)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != config.Default() {
		t.Errorf("written config = %+v, want defaults", loaded)
	}

	if _, err := run(t, "config", "init", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}

	custom := filepath.Join(dir, "custom.toml")
	writeFile(t, custom, "[prepare]\nmax_bucket = 20\n")
	if _, err := run(t, "config", "init", path, "--config", custom, "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	loaded, err = config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Prepare.MaxBucket != 20 {
		t.Errorf("max_bucket = %d, want 20 carried from --config", loaded.Prepare.MaxBucket)
	}
}

func TestCLI_ImportWarnsAboutHiddenItems(t *testing.T) {
	dir := setupCLI(t)
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	itemsFile := filepath.Join(dir, "items.jsonl")
	writeFile(t, itemsFile, fixtureJSONL)

	if _, err := run(t, "import", itemsFile, "--db", filepath.Join(dir, "hn.db"), "--verbose"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.SetVerbose(false) })
	if !strings.Contains(logs.String(), "WARN [import] 1 item(s) are dead or deleted") {
		t.Errorf("missing dead/deleted warning:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "DEBUG [import] dead or deleted: item 9") {
		t.Errorf("verbose run should list hidden items:\n%s", logs.String())
	}
}
