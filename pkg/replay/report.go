package replay

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joripage/exchange-matcher/pkg/orderbook"
)

// Print writes a human readable report of every instrument.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ir := range r.Instruments {
		fmt.Fprintf(tw, "== %s\n", ir.Instrument)
		fmt.Fprintf(tw, "open orders\t%d\t(buy %d, sell %d)\n", len(ir.OpenOrders), ir.BuyDepth, ir.SellDepth)
		for _, o := range ir.OpenOrders {
			fmt.Fprintf(tw, "\t%s\t%s\t%d\t%s\n", o.Side, o.Price, o.Quantity, o.Party)
		}
		fmt.Fprintf(tw, "executed orders\t%d\n", len(ir.ExecutedOrders))
		for _, o := range ir.ExecutedOrders {
			fmt.Fprintf(tw, "\t%s\t%s\t%d\t%s\n", o.Side, o.Price, o.Quantity, o.Party)
		}
		if ir.AveragePrice != nil {
			fmt.Fprintf(tw, "average price\t%s\n", ir.AveragePrice.StringFixed(orderbook.AveragePricePlaces))
		} else {
			fmt.Fprintf(tw, "average price\t-\n")
		}
	}
	return tw.Flush()
}
