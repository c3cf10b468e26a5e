package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/contracts"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "비교 분석 실행",
	Long: `피어 탐색 → 재무 수집 → 순위/인사이트 → 밸류에이션 갭 분해를 실행합니다.

--peers 는 탐색 힌트로 추가되며, --override 와 함께 쓰면 탐색을 건너뛰고
지정한 피어만 사용합니다. PERSIST_REPORTS=true 이면 결과가 저장됩니다.

Example:
  go run ./cmd/peergap analyze WRB
  go run ./cmd/peergap analyze WRB --peers CINF,AFG
  go run ./cmd/peergap analyze WRB --peers CINF,AFG,MKL --override
  go run ./cmd/peergap analyze WRB --json > report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzePeers    []string
	analyzeOverride bool
	analyzeMax      int
	analyzeJSON     bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringSliceVar(&analyzePeers, "peers", nil, "피어 심볼 (comma separated)")
	analyzeCmd.Flags().BoolVar(&analyzeOverride, "override", false, "--peers 만 사용 (탐색 생략)")
	analyzeCmd.Flags().IntVar(&analyzeMax, "max", 0, "최대 피어 수 (0 = 프로파일 값)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "리포트를 JSON으로 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rt, err := newApp(storeIfEnabled)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !analyzeJSON {
		rt.service.WithObserver(analysis.ObserverFunc(printProgress))
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := rt.service.Run(ctx, analysis.Request{
		Symbol:   args[0],
		Peers:    analyzePeers,
		Override: analyzeOverride,
		MaxPeers: analyzeMax,
	})
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	}

	printReport(result)
	return nil
}

func printProgress(e analysis.Event) {
	switch e.Type {
	case analysis.EventStage:
		fmt.Printf("[%s] done\n", e.Stage)
	case analysis.EventEntity:
		status := "ok"
		if !e.Available {
			status = "unavailable"
		}
		fmt.Printf("[collection] %s %s [%d/%d]\n", e.Symbol, status, e.Done, e.Total)
	}
}

func printReport(result *analysis.RunResult) {
	r := result.Report

	fields := [][2]string{
		{"Target", fmt.Sprintf("%s (%s)", r.TargetSymbol, r.Target.Name)},
		{"Report", r.ReportID},
		{"Peers", strings.Join(peerSymbols(r.Peers), ", ")},
		{"Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds())},
	}
	if len(r.Failures) > 0 {
		fields = append(fields, [2]string{"Missing", strings.Join(r.Failures, ", ")})
	}
	PrintHeader("Comparative Analysis", fields)

	// Rankings
	fmt.Println()
	widths := []int{18, 10, 10, 8, 9}
	PrintTableHeader([]string{"Metric", "Target", "Peer Avg", "Rank", "Gap %"}, widths)
	for _, m := range r.Rankings {
		rank := contracts.RankString(m.TargetRank)
		if m.TargetRank != nil {
			rank = fmt.Sprintf("%s/%d", rank, m.RankedCount)
		}
		PrintTableRow([]string{
			string(m.Name),
			formatFloat(m.TargetValue, 2),
			formatFloat(m.PeerAverage, 2),
			rank,
			formatFloat(m.TargetGapPct, 1),
		}, widths)
	}
	if o, ok := r.TargetOverall(); ok {
		fmt.Println()
		PrintKeyValue("Overall rank", fmt.Sprintf("%s (score %s, %d metrics)",
			contracts.RankString(o.Rank), formatFloat(o.Score, 2), o.MetricsUsed), 14)
	}

	// Insights
	if in := r.Insights; in != nil {
		fmt.Println()
		PrintSeparator()
		printInsights("Strengths", in.Strengths)
		printInsights("Weaknesses", in.Weaknesses)
		printInsights("Perception gaps", in.PerceptionGaps)
		if in.TargetPE != nil {
			PrintKeyValue("Target P/E", formatFloat(in.TargetPE, 2), 14)
		}
		if in.ImpliedMarketCap != nil {
			PrintKeyValue("Implied cap", formatMoney(*in.ImpliedMarketCap), 14)
		}
		if len(in.ExtremeLeverage) > 0 {
			PrintWarning("Extreme leverage: " + strings.Join(in.ExtremeLeverage, ", "))
		}
	}

	// Valuation
	fmt.Println()
	PrintSeparator()
	v := r.Valuation
	if v == nil {
		PrintWarning("Valuation skipped: not enough peer data")
	} else {
		PrintKeyValue("Multiple", string(v.Multiple), 14)
		PrintKeyValue("Actual", fmt.Sprintf("%.2f", v.ActualMultiple), 14)
		PrintKeyValue("Peer average", fmt.Sprintf("%.2f", v.PeerAverageMultiple), 14)
		PrintKeyValue("Total gap", fmt.Sprintf("%+.2f", v.TotalGap), 14)
		if d := v.Decomposition; d != nil {
			PrintKeyValue("Expected", fmt.Sprintf("%.2f", d.ExpectedMultiple), 14)
			PrintKeyValue("Fundamental", fmt.Sprintf("%+.2f", d.FundamentalGap), 14)
			PrintKeyValue("Narrative", fmt.Sprintf("%+.2f", d.NarrativeGap), 14)
		}
		if reg := v.Regression; reg != nil {
			PrintKeyValue("R²", formatFloat(reg.RSquared, 3), 14)
			for _, c := range reg.Contributions {
				PrintKeyValue("  "+c.Factor.Label(), fmt.Sprintf("%+.2f", c.Contribution), 14)
			}
		}
		if v.Note != "" {
			PrintWarning(v.Note)
		}
	}

	fmt.Println()
	if result.Persisted {
		PrintSuccess("Report saved: " + r.ReportID)
	} else {
		PrintSuccess("Analysis completed")
	}
}

func printInsights(title string, items []contracts.Insight) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, it := range items {
		fmt.Printf("   • %s\n", it.Description)
	}
}

func peerSymbols(peers []contracts.PeerCandidate) []string {
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.Symbol()
	}
	return out
}
