// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contextfile

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "be terse", "be terse"},
		{"trailing newline", "be terse\n", "be terse"},
		{"crlf", "be terse\r\n", "be terse"},
		{"inner newlines kept", "a\nb\n", "a\nb"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".txt")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = Read(dir)
	assert.Error(t, err)
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *recorder) last() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return "", 0
	}
	return r.seen[len(r.seen)-1], len(r.seen)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))

	rec := &recorder{}
	w, err := New(path, rec.record, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	initial, err := w.Start()
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, "first", initial)

	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))

	assert.Eventually(t, func() bool {
		got, _ := rec.last()
		return got == "second"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_ReloadsOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	rec := &recorder{}
	w, err := New(path, rec.record, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	_, err = w.Start()
	require.NoError(t, err)
	defer w.Close()

	tmp := filepath.Join(dir, ".context.txt.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("replaced"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		got, _ := rec.last()
		return got == "replaced"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresSiblingsAndUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.txt")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))

	rec := &recorder{}
	w, err := New(path, rec.record, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	_, err = w.Start()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))

	time.Sleep(200 * time.Millisecond)
	_, n := rec.last()
	assert.Equal(t, 0, n)
}

func TestWatcher_StartMissingFile(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing.txt"), nil, nil)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Start()
	assert.Error(t, err)
}
