package plugman

import (
	"fmt"
	"io"
	"strings"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/installer"
	"github.com/samber/lo"
)

func printCheckReport(w io.Writer, report *installer.CheckReport) {
	if report == nil || len(report.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "%-40s %-15s %-15s %-15s %s\n", "PLUGIN", "INSTALLED", "TARGET", "LATEST", "STATUS")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, result := range report.Results {
		status := string(result.Status)
		if result.LatestIsOlder {
			status += " (latest is older)"
		}
		if result.Error != nil {
			status += fmt.Sprintf(": %v", result.Error)
		}
		fmt.Fprintf(w, "%-40s %-15s %-15s %-15s %s\n",
			result.PluginId,
			common.ValueOrPlaceholder(result.InstalledVersion),
			common.ValueOrPlaceholder(result.TargetVersion),
			common.ValueOrPlaceholder(result.LatestVersion),
			status)
	}
	fmt.Fprintln(w)
}

func printUpdateReport(w io.Writer, report *installer.UpdateReport) {
	if report == nil {
		return
	}
	printCheckReport(w, report.Check)
	if len(report.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "%-40s %-15s %-15s %s\n", "PLUGIN", "FROM", "TO", "ACTION")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, result := range report.Results {
		action := string(result.Action)
		if result.Error != nil {
			action += fmt.Sprintf(": %v", result.Error)
		}
		fmt.Fprintf(w, "%-40s %-15s %-15s %s\n",
			result.PluginId,
			common.ValueOrPlaceholder(result.FromVersion),
			common.ValueOrPlaceholder(result.ToVersion),
			action)
	}
	updated := lo.CountBy(report.Results, func(result *installer.PluginUpdateResult) bool { return result.Action == installer.UPDATE_ACTION_UPDATED })
	fmt.Fprintf(w, "\nUpdated %s\n", common.GetSingularPluralString(updated, "plugin", "plugins"))
}

func printPluginList(w io.Writer, scope string, entries []*installer.PluginListEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No plugins installed in '%s'\n", scope)
		return
	}
	fmt.Fprintf(w, "Plugins in '%s':\n", scope)
	for _, entry := range entries {
		details := []string{}
		if entry.State() != installer.LIST_STATE_UNKNOWN {
			details = append(details, string(entry.State()))
		}
		if entry.Pinned() {
			details = append(details, fmt.Sprintf("pinned to %s", entry.TargetVersion))
		}
		latest := lo.Ternary(entry.LatestVersion == "", string(installer.LIST_STATE_UNKNOWN), entry.LatestVersion)
		if len(details) > 0 {
			latest += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
		}
		fmt.Fprintf(w, "  %s\n", entry.PluginId)
		fmt.Fprintf(w, "    Installed: %s\n", entry.InstalledVersionValidated())
		fmt.Fprintf(w, "    Latest:    %s\n", latest)
		if len(entry.Dependencies) > 0 {
			fmt.Fprintf(w, "    Dependencies: %s\n", strings.Join(entry.Dependencies, ", "))
		}
	}
}

func printCatalogEntries(w io.Writer, entries []*common.CatalogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No plugins found")
		return
	}
	fmt.Fprintf(w, "%-30s %-45s %s\n", "NAME", "REPOSITORY", "DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, entry := range entries {
		description := truncate(entry.Description, 60)
		fmt.Fprintf(w, "%-30s %-45s %s\n", entry.Name, common.ValueOrPlaceholder(entry.Repository), description)
	}
	fmt.Fprintf(w, "\nFound %s\n", common.GetSingularPluralStringSimple(entries, "plugin"))
}

// Shortens the text to the given number of characters, marking the cut with an ellipsis.
func truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}
