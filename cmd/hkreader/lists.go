package main

import (
	"context"
	"fmt"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
)

// listOutput is JSON output format for mailing lists
type listOutput struct {
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description,omitempty"`
	ArchivePolicy string `json:"archivePolicy,omitempty"`
	URL           string `json:"url"`
}

func runListsBrowse(ctx context.Context, mgr *archive.Manager, server string, out *outputWriter) error {
	if server == "" {
		return fmt.Errorf("no server URL: pass --server or set one in the config file")
	}
	out.writeVerbose("Fetching lists from %s", server)

	lists, err := mgr.BrowseLists(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to fetch lists: %w", err)
	}
	if len(lists) == 0 {
		out.writeMessage("No lists found")
		return nil
	}

	if out.json {
		output := make([]listOutput, len(lists))
		for i, ml := range lists {
			output[i] = listOutput{
				Name:          ml.Name,
				DisplayName:   ml.DisplayName,
				Description:   ml.Description,
				ArchivePolicy: ml.ArchivePolicy,
				URL:           ml.URL,
			}
		}
		return out.writeJSON(output)
	}

	rows := make([][]string, len(lists))
	for i, ml := range lists {
		rows[i] = []string{ml.Name, ml.DisplayName, truncateString(ml.Description, 60)}
	}
	return out.writeTable([]string{"NAME", "DISPLAY NAME", "DESCRIPTION"}, rows)
}

func runListsSubscribe(ctx context.Context, mgr *archive.Manager, server string, names []string, out *outputWriter) error {
	if server == "" {
		return fmt.Errorf("no server URL: pass --server or set one in the config file")
	}

	subscribed, err := mgr.Subscribe(ctx, server, names)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	for _, ml := range subscribed {
		out.writeMessage(fmt.Sprintf("Subscribed to %s", ml.Name))
	}
	return nil
}

func runListsUnsubscribe(mgr *archive.Manager, name string, out *outputWriter) error {
	if err := mgr.Unsubscribe(name); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	out.writeMessage(fmt.Sprintf("Unsubscribed from %s (local cache removed)", name))
	return nil
}

func runListsSubscribed(mgr *archive.Manager, out *outputWriter) error {
	lists, err := mgr.Subscribed()
	if err != nil {
		return fmt.Errorf("failed to load subscribed lists: %w", err)
	}
	if len(lists) == 0 {
		out.writeMessage("No subscribed lists. Use 'hkreader lists subscribe' to add some.")
		return nil
	}

	if out.json {
		output := make([]listOutput, len(lists))
		for i, ml := range lists {
			output[i] = listOutput{
				Name:          ml.Name,
				DisplayName:   ml.DisplayName,
				Description:   ml.Description,
				ArchivePolicy: ml.ArchivePolicy,
				URL:           ml.URL,
			}
		}
		return out.writeJSON(output)
	}

	rows := make([][]string, len(lists))
	for i, ml := range lists {
		rows[i] = []string{ml.Name, ml.DisplayName, truncateString(ml.Description, 60)}
	}
	return out.writeTable([]string{"NAME", "DISPLAY NAME", "DESCRIPTION"}, rows)
}
