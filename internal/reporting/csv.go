package reporting

import (
	"fmt"
	"strings"
)

// RenderRetentionCSV renders the retention matrix as CSV string.
func RenderRetentionCSV(rows []RetentionMatrixRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("cohort_month,segment,months_since_bridge,month_label,cohort_size,")
	sb.WriteString("active_users,cumulative_users,metric_type,")
	sb.WriteString("activation_rate,retention_rate,cumulative_retention_rate\n")

	// Rows
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%d,%d,%d,%s,%.6f,%.6f,%.6f\n",
			m.CohortMonth,
			m.Segment,
			m.MonthsSinceBridge,
			m.MonthLabel,
			m.CohortSize,
			m.ActiveUsers,
			m.CumulativeUsers,
			m.MetricType,
			m.ActivationRate,
			m.RetentionRate,
			m.CumulativeRetentionRate,
		))
	}

	return sb.String()
}

// RenderCohortSummaryCSV renders cohort summaries as CSV string.
func RenderCohortSummaryCSV(rows []CohortSummaryRow) string {
	var sb strings.Builder

	sb.WriteString("cohort_month,segment,user_count,total_bridged,median_bridged,top_user\n")
	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%.6f,%s\n",
			c.CohortMonth,
			c.Segment,
			c.UserCount,
			c.TotalBridged,
			c.MedianBridged,
			c.TopRankUser,
		))
	}

	return sb.String()
}
