package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunThreadsListRefreshJSON(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(true)

	require.NoError(t, runThreadsList(context.Background(), mgr, "dev@example.org", true, 0, out))

	var threads []threadOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &threads))
	require.Len(t, threads, 1)
	assert.Equal(t, "t1", threads[0].ThreadID)
	assert.Equal(t, "release schedule", threads[0].Subject)
	assert.True(t, threads[0].Unread)
}

func TestRunThreadsListEmptyCache(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(false)

	require.NoError(t, runThreadsList(context.Background(), mgr, "dev@example.org", false, 0, out))
	assert.Contains(t, buf.String(), "Try --refresh")
}

func TestRunThreadsListUnknownList(t *testing.T) {
	mgr := testManager(t)
	out, _ := testOutput(false)

	err := runThreadsList(context.Background(), mgr, "ghost@example.org", false, 0, out)
	assert.Error(t, err)
}

func TestRunThreadsReadJSON(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(true)

	require.NoError(t, runThreadsRead(context.Background(), mgr, "dev@example.org", "t1", true, out))

	var emails []emailOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &emails))
	require.Len(t, emails, 1)
	assert.Equal(t, "m1@example.org", emails[0].MessageID)
	assert.Equal(t, "Ann <ann@example.org>", emails[0].From)
	assert.Equal(t, "how about friday?", emails[0].Body)

	// Reading marks the thread read.
	out, buf = testOutput(true)
	require.NoError(t, runThreadsList(context.Background(), mgr, "dev@example.org", false, 0, out))
	var threads []threadOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &threads))
	assert.False(t, threads[0].Unread)
}

func TestRunThreadsReadText(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(false)

	require.NoError(t, runThreadsRead(context.Background(), mgr, "dev@example.org", "t1", true, out))

	text := buf.String()
	assert.Contains(t, text, "---\n")
	assert.Contains(t, text, "message_id: m1@example.org")
	assert.Contains(t, text, "from: Ann <ann@example.org>")
	assert.Contains(t, text, "how about friday?")
}

func TestThreadForSuggestsRefresh(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, _ := testOutput(false)

	err := runThreadsRead(context.Background(), mgr, "dev@example.org", "t1", false, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "try --refresh")
}

func TestRunThreadsExport(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(false)
	path := filepath.Join(t.TempDir(), "thread.mbox")

	require.NoError(t, runThreadsExport(context.Background(), mgr, "dev@example.org", "t1", path, out))
	assert.Contains(t, buf.String(), "Exported 1 emails to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	mbox := string(data)
	assert.True(t, strings.HasPrefix(mbox, "From "), "mbox must start with a From_ line")
	assert.Contains(t, mbox, "Subject: release schedule")
	assert.Contains(t, mbox, "Message-ID: <m1@example.org>")
	assert.Contains(t, mbox, "X-Mailing-List: dev@example.org")
	assert.Contains(t, mbox, "how about friday?")
}

func TestRunSyncJSON(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)
	out, buf := testOutput(true)

	require.NoError(t, runSync(context.Background(), mgr, out))

	var results []syncOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "dev@example.org", results[0].List)
	assert.Equal(t, 1, results[0].Updated)
}

func TestRunSyncNoLists(t *testing.T) {
	mgr := testManager(t)
	out, buf := testOutput(false)

	require.NoError(t, runSync(context.Background(), mgr, out))
	assert.Contains(t, buf.String(), "No subscribed lists")
}
