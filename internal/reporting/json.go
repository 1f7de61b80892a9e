package reporting

import (
	"fmt"

	"github.com/goccy/go-json"

	"backtest-lab/internal/metrics"
)

// RenderJSON renders a report as indented JSON.
func RenderJSON(r *metrics.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data) + "\n", nil
}
