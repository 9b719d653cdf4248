package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Bridge Cohort Retention Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Cohorts: %d | Users: %d\n\n", r.CohortCount, r.UserCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Bridge Deposits | %d |\n", r.DataSummary.TotalDeposits))
	sb.WriteString(fmt.Sprintf("| Destination Transactions | %d |\n", r.DataSummary.TotalTransactions))
	sb.WriteString(fmt.Sprintf("| Unique Bridgers | %d |\n", r.DataSummary.UniqueBridgers))
	sb.WriteString(fmt.Sprintf("| Unique Active Users | %d |\n", r.DataSummary.UniqueActiveUsers))
	if !r.DataSummary.FirstDepositAt.IsZero() {
		sb.WriteString(fmt.Sprintf("| First Deposit | %s |\n", r.DataSummary.FirstDepositAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("| Last Deposit | %s |\n", r.DataSummary.LastDepositAt.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.Checks) > 0 {
		sb.WriteString("| Check | Expectation | Actual | Status |\n")
		sb.WriteString("|-------|-------------|--------|--------|\n")
		for _, check := range r.DataQuality.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Expectation, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Results below should not be trusted.\n\n")
		}
	} else {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	if len(r.DataQuality.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range r.DataQuality.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Cohort Summary
	sb.WriteString("## Cohort Summary\n\n")
	if len(r.CohortSummary) > 0 {
		sb.WriteString("| Cohort | Segment | Users | Total ETH | Median ETH | Top User |\n")
		sb.WriteString("|--------|---------|-------|-----------|------------|----------|\n")
		for _, c := range r.CohortSummary {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %.4f | %s |\n",
				c.CohortMonth, c.Segment, c.UserCount,
				c.TotalBridged, c.MedianBridged, c.TopRankUser))
		}
	} else {
		sb.WriteString("No cohorts available.\n")
	}
	sb.WriteString("\n")

	// Retention Matrix
	sb.WriteString("## Retention Matrix\n\n")
	if len(r.RetentionMatrix) > 0 {
		sb.WriteString("| Cohort | Segment | Offset | Label | Size | Active | Cumulative | Type | Activation | Retention | CumRetention |\n")
		sb.WriteString("|--------|---------|--------|-------|------|--------|------------|------|------------|-----------|-------------|\n")
		for _, m := range r.RetentionMatrix {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %d | %d | %d | %s | %.4f | %.4f | %.4f |\n",
				m.CohortMonth, m.Segment, m.MonthsSinceBridge, m.MonthLabel,
				m.CohortSize, m.ActiveUsers, m.CumulativeUsers, m.MetricType,
				m.ActivationRate, m.RetentionRate, m.CumulativeRetentionRate))
		}
	} else {
		sb.WriteString("No retention rows available.\n")
	}
	sb.WriteString("\n")

	// Engagement Summary
	sb.WriteString("## Engagement Summary\n\n")
	if len(r.EngagementSummary) > 0 {
		sb.WriteString("| Status | Users | Churned |\n")
		sb.WriteString("|--------|-------|--------|\n")
		for _, e := range r.EngagementSummary {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n",
				e.Status, e.UserCount, e.ChurnedCount))
		}
	} else {
		sb.WriteString("No engagement data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
