package oplog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

const headerRule = "================================================================================"

// Render produces the fixed-layout plain-text report for a finalized
// operation log
func Render(l *domain.OperationLog) string {
	var b strings.Builder

	b.WriteString(headerRule + "\n")
	fmt.Fprintf(&b, "Operation:  %s\n", strings.ToUpper(string(l.Kind)))
	fmt.Fprintf(&b, "Collection: %s\n", l.Collection)
	fmt.Fprintf(&b, "Started:    %s\n", l.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Completed:  %s\n", l.CompletedAt.UTC().Format(time.RFC3339))
	b.WriteString(headerRule + "\n")

	if len(l.Conditions) > 0 {
		b.WriteString("\nConditions:\n")
		for _, cond := range l.Conditions {
			fmt.Fprintf(&b, "  %s %s %s\n", cond.Field, cond.Operator, renderValue(cond.Value))
		}
	}

	if len(l.Payload) > 0 {
		b.WriteString("\nUpdate Data:\n")
		pretty, err := json.MarshalIndent(l.Payload, "", "  ")
		if err != nil {
			fmt.Fprintf(&b, "  %v\n", l.Payload)
		} else {
			b.WriteString(string(pretty) + "\n")
		}
	}

	b.WriteString("\nSUMMARY\n")
	fmt.Fprintf(&b, "Total: %d\n", l.Total)
	fmt.Fprintf(&b, "Success: %d\n", l.Success)
	fmt.Fprintf(&b, "Failure: %d\n", l.Failure)

	b.WriteString("\nDETAILS\n")
	for _, entry := range l.Entries {
		fmt.Fprintf(&b, "%s [%s] %s\n", entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Status, entry.DocID)
		if entry.Status == domain.LogFailure && entry.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", entry.Error)
		}
	}

	return b.String()
}

// renderValue formats a condition value for the report: strings quoted,
// times as ISO-8601, everything else as-is
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
