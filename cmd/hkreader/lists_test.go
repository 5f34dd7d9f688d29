package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunListsBrowseJSON(t *testing.T) {
	mgr := testManager(t)
	out, buf := testOutput(true)

	require.NoError(t, runListsBrowse(context.Background(), mgr, testServer, out))

	var lists []listOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &lists))
	require.Len(t, lists, 1)
	assert.Equal(t, "dev@example.org", lists[0].Name)
	assert.Equal(t, "Dev", lists[0].DisplayName)
}

func TestRunListsBrowseTable(t *testing.T) {
	mgr := testManager(t)
	out, buf := testOutput(false)

	require.NoError(t, runListsBrowse(context.Background(), mgr, testServer, out))
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "dev@example.org")
}

func TestRunListsBrowseRequiresServer(t *testing.T) {
	mgr := testManager(t)
	out, _ := testOutput(false)

	err := runListsBrowse(context.Background(), mgr, "", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--server")
}

func TestRunListsSubscribeAndSubscribed(t *testing.T) {
	mgr := testManager(t)
	out, buf := testOutput(false)

	require.NoError(t, runListsSubscribe(context.Background(), mgr, testServer,
		[]string{"dev@example.org"}, out))
	assert.Contains(t, buf.String(), "Subscribed to dev@example.org")

	out, buf = testOutput(true)
	require.NoError(t, runListsSubscribed(mgr, out))
	var lists []listOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &lists))
	require.Len(t, lists, 1)
	assert.Equal(t, testListURL, lists[0].URL)
}

func TestRunListsSubscribeUnknown(t *testing.T) {
	mgr := testManager(t)
	out, _ := testOutput(false)

	err := runListsSubscribe(context.Background(), mgr, testServer,
		[]string{"ghost@example.org"}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@example.org")
}

func TestRunListsUnsubscribe(t *testing.T) {
	mgr := testManager(t)
	subscribeDev(t, mgr)

	out, buf := testOutput(false)
	require.NoError(t, runListsUnsubscribe(mgr, "dev@example.org", out))
	assert.Contains(t, buf.String(), "Unsubscribed from dev@example.org")

	out, buf = testOutput(false)
	require.NoError(t, runListsSubscribed(mgr, out))
	assert.Contains(t, buf.String(), "No subscribed lists")
}
