package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover [symbol]",
	Short: "피어 탐색",
	Long: `대상 기업의 동종 기업(peer)을 탐색하고 유사도 순으로 출력합니다.

스크리너(산업 → 섹터) 후보를 수집하고, 시가총액/매출/지역/섹터
유사도 가중합에 관계 계층(industry/sector/financial) 배수를 곱해 정렬합니다.

Example:
  go run ./cmd/peergap discover WRB
  go run ./cmd/peergap discover WRB --max 8`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

var (
	discoverMax int
)

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVar(&discoverMax, "max", 0, "최대 피어 수 (0 = 프로파일 값)")
}

// signalContext cancels on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	rt, err := newApp(storeIfEnabled)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()

	set, err := rt.service.DiscoverPeers(ctx, args[0], discoverMax)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	t := set.Target
	PrintHeader("Peer Discovery", [][2]string{
		{"Target", fmt.Sprintf("%s (%s)", t.Symbol, t.Name)},
		{"Sector", t.Sector + " / " + t.Industry},
		{"Mkt Cap", formatMoney(t.MarketCap)},
		{"Screened", fmt.Sprintf("%d candidates", set.Screened)},
	})
	if set.FromHistory {
		PrintWarning("Screener unavailable, using last stored peer set")
	}
	fmt.Println()

	widths := []int{8, 28, 10, 7, 10, 18}
	PrintTableHeader([]string{"Symbol", "Name", "Tier", "Score", "Mkt Cap", "Source"}, widths)
	for _, p := range set.Peers {
		PrintTableRow([]string{
			p.Symbol(),
			truncate(p.Profile.Name, widths[1]),
			string(p.Relationship),
			fmt.Sprintf("%.3f", p.WeightedScore),
			formatMoney(p.Profile.MarketCap),
			string(p.Source),
		}, widths)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d peers selected", len(set.Peers)))
	return nil
}

// truncate shortens s to n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
