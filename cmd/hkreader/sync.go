package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
)

// syncOutput is JSON output format for sync results
type syncOutput struct {
	List    string `json:"list"`
	Updated int    `json:"updated"`
}

func runSync(ctx context.Context, mgr *archive.Manager, out *outputWriter) error {
	updated, err := mgr.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if len(updated) == 0 {
		out.writeMessage("No subscribed lists to sync.")
		return nil
	}

	names := make([]string, 0, len(updated))
	for name := range updated {
		names = append(names, name)
	}
	sort.Strings(names)

	if out.json {
		output := make([]syncOutput, len(names))
		for i, name := range names {
			output[i] = syncOutput{List: name, Updated: updated[name]}
		}
		return out.writeJSON(output)
	}

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, strconv.Itoa(updated[name])}
	}
	return out.writeTable([]string{"LIST", "THREADS WITH NEWS"}, rows)
}
