package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"game-stock-advisor/console/internal/advisor"
)

// RenderText writes resp as a terminal table.
func RenderText(w io.Writer, resp advisor.PredictionResponse) error {
	if _, err := fmt.Fprintln(w, SummaryLine(resp)); err != nil {
		return err
	}
	if resp.Message != "" {
		if _, err := fmt.Fprintln(w, resp.Message); err != nil {
			return err
		}
	}
	if len(resp.Games) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tGAME\tPLATFORM\tGENRE\tPUBLISHER\tGLOBAL\tNA\tEU\tJP\tOTHER")
	for _, g := range resp.Games {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Rank, g.Name, g.Platform, g.Genre, g.Publisher,
			Sales(g.PredictedSales), Sales(g.NASales), Sales(g.EUSales), Sales(g.JPSales), Sales(g.OtherSales))
	}
	return tw.Flush()
}
