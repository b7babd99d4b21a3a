// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/pkg/logging"
	"github.com/AleutianAI/vata/pkg/ux"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian"
	"github.com/AleutianAI/vata/services/vata/history"
	"github.com/AleutianAI/vata/services/vata/provenance"
	"github.com/AleutianAI/vata/services/vata/scan"
)

const cleanPython = "def f(x):\n    return x"

// runCLI runs vata with a fresh HOME so config and history stay in a temp
// directory.
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, ExitOK, exitCode(nil, &stderr))
	assert.Equal(t, ExitFlagged, exitCode(errFlagged, &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, ExitError, exitCode(errors.New("boom"), &stderr))
	assert.Equal(t, "Error: boom\n", stderr.String())
}

func TestAnalyze_Stdin(t *testing.T) {
	withHome(t)
	code, out, _ := runCLI(t, cleanPython, "analyze", "--language", "python")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "<stdin>  Soul score 46/100  mixed")
	assert.Contains(t, out, "structure")
}

func TestAnalyze_JSON(t *testing.T) {
	withHome(t)
	code, out, _ := runCLI(t, cleanPython, "analyze", "--language", "python", "--json", "--no-history")
	require.Equal(t, ExitOK, code)

	var report datatypes.AuthenticityReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 46, report.Overall)
	assert.Equal(t, datatypes.CategoryMixed, report.Category)
}

func TestAnalyze_Rejected(t *testing.T) {
	withHome(t)
	code, out, _ := runCLI(t, "password = 'abc123'", "analyze", "--language", "python")

	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "hardcoded_secret")
}

func TestAnalyze_Errors(t *testing.T) {
	withHome(t)

	code, _, stderr := runCLI(t, "", "analyze", "/does/not/exist.py")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Error: reading input")

	code, _, stderr = runCLI(t, "x", "analyze", "--language", "cobol")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unsupported language tag")
}

func TestHumanize_ZeroIterationsEchoesInput(t *testing.T) {
	withHome(t)
	code, out, _ := runCLI(t, cleanPython, "humanize", "--language", "python", "--max-iter", "0")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, cleanPython, out)

	code, out, _ = runCLI(t, cleanPython, "humanize", "--language", "python", "--max-iter", "0", "--diff")
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, out)
}

func TestHumanize_Rejected(t *testing.T) {
	withHome(t)
	code, out, stderr := runCLI(t, "rm -rf /", "humanize", "--language", "shell")

	assert.Equal(t, ExitFlagged, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "input rejected")
}

func TestHumanize_JSONAndOut(t *testing.T) {
	home := withHome(t)
	src := filepath.Join(home, "f.py")
	writeFile(t, src, cleanPython+"\n")

	code, out, _ := runCLI(t, "", "humanize", src, "--profile", "mild", "--seed", "3", "--max-iter", "2", "--json")
	require.Equal(t, ExitOK, code)
	var res datatypes.TransformResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.LessOrEqual(t, res.Attempted, 2)

	dst := filepath.Join(home, "f.human.py")
	code, out, _ = runCLI(t, "", "humanize", src, "--profile", "mild", "--seed", "3", "--max-iter", "2", "--out", dst)
	require.Equal(t, ExitOK, code)
	assert.Empty(t, out)
	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, res.Text, string(written))
}

func TestScan_AndHistory(t *testing.T) {
	home := withHome(t)
	root := filepath.Join(home, "project")
	writeFile(t, filepath.Join(root, "a.py"), cleanPython+"\n")
	writeFile(t, filepath.Join(root, "secret.py"), "password = 'abc123'\n")

	code, out, _ := runCLI(t, "", "scan", root)
	assert.Equal(t, ExitFlagged, code, "a rejected file fails the scan")
	assert.Contains(t, out, "a.py")
	assert.Contains(t, out, "rejected: 1")
	assert.Contains(t, out, "humanity index")

	code, out, _ = runCLI(t, "", "history", "list", "--json")
	require.Equal(t, ExitOK, code)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, history.KindScan, records[0].Kind)
	assert.Equal(t, 2, records[0].Scanned)

	code, out, _ = runCLI(t, "", "history", "show", records[0].ID)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, records[0].ID)

	code, out, _ = runCLI(t, "", "history", "clear")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "deleted 1 record(s)")

	code, _, stderr := runCLI(t, "", "history", "show", records[0].ID)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "not found")
}

func TestScan_JSONThreshold(t *testing.T) {
	home := withHome(t)
	root := filepath.Join(home, "project")
	writeFile(t, filepath.Join(root, "a.py"), cleanPython+"\n")

	code, out, _ := runCLI(t, "", "scan", root, "--json", "--threshold", "0", "--no-history")
	require.Equal(t, ExitOK, code)
	var sum scan.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 1, sum.Scanned)

	code, _, _ = runCLI(t, "", "scan", root, "--json", "--threshold", "100", "--no-history")
	assert.Equal(t, ExitFlagged, code)

	code, out, _ = runCLI(t, "", "scan", root, "--threshold", "100", "--no-history", "--no-recursive")
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "below the threshold 100")
	assert.Contains(t, out, "  - "+filepath.Join(root, "a.py")+" (")
}

// gitInit commits files to a new repository on branch main.
func gitInit(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	for _, args := range [][]string{
		{"init", "-q"},
		{"symbolic-ref", "HEAD", "refs/heads/main"},
		{"add", "-A"},
		{"commit", "-q", "-m", "initial"},
	} {
		base := []string{"-c", "user.name=vata", "-c", "user.email=vata@example.com", "-c", "commit.gpgsign=false"}
		cmd := exec.Command("git", append(base, args...)...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
}

func TestProvenance(t *testing.T) {
	home := withHome(t)
	repo := filepath.Join(home, "repo")
	gitInit(t, repo, map[string]string{"a.py": cleanPython + "\n", "notes.md": "# notes\n"})

	code, out, _ := runCLI(t, "", "provenance", repo, "--json", "--threshold", "0")
	require.Equal(t, ExitOK, code)
	var rep provenance.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "main", rep.Branch)
	assert.Equal(t, 1, rep.Commits)
	assert.Equal(t, 1, rep.Scanned)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, "a.py", rep.Entries[0].Path)

	code, out, _ = runCLI(t, "", "provenance", repo, "--threshold", "100", "--no-history")
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "COMMIT")
	assert.Contains(t, out, "below the threshold 100")

	code, out, _ = runCLI(t, "", "history", "list", "--json")
	require.Equal(t, ExitOK, code)
	var recs []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, history.KindProvenance, recs[0].Kind)

	code, _, _ = runCLI(t, "", "provenance", repo, "--branch", "no-such-branch")
	assert.Equal(t, ExitError, code)
}

func TestEval(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, "eval")
	writeFile(t, filepath.Join(dir, "plain.py"), cleanPython)
	writeFile(t, filepath.Join(dir, "labels.yaml"), "samples:\n  - path: plain.py\n    label: machine\n")

	code, out, _ := runCLI(t, "", "eval", "--labels", filepath.Join(dir, "labels.yaml"))
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Confusion Matrix:")
	assert.Contains(t, out, "TP: 1  FP: 0")

	code, _, _ = runCLI(t, "", "eval")
	assert.Equal(t, ExitError, code)
}

func TestProfiles(t *testing.T) {
	withHome(t)
	code, out, _ := runCLI(t, "", "profiles")
	require.Equal(t, ExitOK, code)
	for _, name := range []string{"mild", "aggressive", "default", "2am_dev_rage"} {
		assert.Contains(t, out, name)
	}
}

func TestFingerprintAttestFairness(t *testing.T) {
	withHome(t)

	code, out, _ := runCLI(t, cleanPython, "fingerprint", "--language", "python")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "IDENTIFIER")

	code, out, _ = runCLI(t, cleanPython, "attest", "--language", "python")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "placeholder-not-a-proof")
	assert.Contains(t, out, "ethics: ")

	code, out, _ = runCLI(t, cleanPython, "fairness")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "no personal data")

	code, out, _ = runCLI(t, "contact = 'jane.doe@example.com'", "fairness")
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "WARN:")
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcher_RescoresWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	scanner, err := scan.NewScanner(guardian.Default())
	require.NoError(t, err)

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fw.Close()

	var out syncBuffer
	w := &watcher{
		scanner: scanner,
		filter:  scan.DefaultFilter(),
		printer: ux.NewPrinter(&out, ux.ModePlain),
		app:     &app{logger: logging.Nop()},
	}
	require.NoError(t, w.add(fw, dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx, fw) }()

	writeFile(t, filepath.Join(dir, "a.py"), cleanPython)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "a.py")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, out.String(), "mixed")

	cancel()
	require.NoError(t, <-done)
}
