// Package infra contains infrastructure adapters for the engine context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dpolo-eth/flasharb/business/engine/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Flash Arbitrage Engine Started")
	fmt.Fprintln(r.out, "==============================")
	return nil
}

// ReportCycle outputs a cycle summary, with full detail for cycles that
// reached an executable opportunity.
func (r *ConsoleReporter) ReportCycle(report *domain.CycleReport) {
	switch report.Outcome {
	case domain.OutcomeNoOpportunity, domain.OutcomeNotProfitable:
		fmt.Fprintf(r.out, "[%s] cycle #%d: %s (%s)\n",
			report.StartedAt.Format("15:04:05"), report.Cycle, report.Outcome, report.Duration.Round(time.Millisecond))
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "CYCLE #%d — %s\n", report.Cycle, report.Outcome)
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Timestamp:      %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Duration:       %s\n", report.Duration.Round(time.Millisecond))

	if len(report.Opportunities) > 0 {
		best := report.Opportunities[0]
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "BEST OPPORTUNITY")
		fmt.Fprintf(r.out, "  Network:        %s\n", best.Opportunity.Network)
		fmt.Fprintf(r.out, "  Pair:           %s\n", best.Opportunity.Pair.String())
		fmt.Fprintf(r.out, "  Buy:            %s\n", best.Opportunity.BuyVenue.String())
		fmt.Fprintf(r.out, "  Sell:           %s\n", best.Opportunity.SellVenue.String())
		fmt.Fprintf(r.out, "  Spread:         %s%%\n", best.Opportunity.SpreadPct.StringFixed(4))
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "PROFIT ESTIMATE")
		fmt.Fprintf(r.out, "  Gross:          $%s\n", best.Estimate.GrossUSD.StringFixed(2))
		fmt.Fprintf(r.out, "  Flash-loan fee: $%s\n", best.Estimate.FlashLoanFeeUSD.StringFixed(2))
		fmt.Fprintf(r.out, "  Gas:            $%s\n", best.Estimate.GasUSD.StringFixed(2))
		fmt.Fprintf(r.out, "  Net:            $%s (%s%%)\n", best.Estimate.NetUSD.StringFixed(2), best.Estimate.NetPct.StringFixed(4))
		if !best.Confidence.IsZero() {
			fmt.Fprintf(r.out, "  Confidence:     %s\n", best.Confidence.StringFixed(2))
		}
	}

	if report.Detail != "" {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintf(r.out, "Detail:         %s\n", report.Detail)
	}

	if report.Receipt != nil {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "EXECUTION")
		fmt.Fprintf(r.out, "  Tx:             %s\n", report.Receipt.TxHash)
		if report.Receipt.Success {
			fmt.Fprintf(r.out, "  Profit:         $%s\n", report.Receipt.ProfitUSD.StringFixed(2))
		} else {
			fmt.Fprintf(r.out, "  Reverted:       %s\n", report.Receipt.Revert)
		}
		fmt.Fprintf(r.out, "  Gas:            $%s\n", report.Receipt.GasUSD.StringFixed(2))
	}

	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Flash Arbitrage Engine Stopped")
	return nil
}
