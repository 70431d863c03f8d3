package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// DialectInfo summarizes how a dialect renders queries.
type DialectInfo struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Quoted      string `json:"quoted"`
	Paging      string `json:"paging"`
	Returning   string `json:"returning"`
}

var pagingNames = map[sqlfmt.PagingStyle]string{
	sqlfmt.PagingOffsetFetch: "offset_fetch",
	sqlfmt.PagingLimitOffset: "limit_offset",
	sqlfmt.PagingTop:         "top",
}

var returningNames = map[sqlfmt.ReturningStyle]string{
	sqlfmt.ReturningNone:   "none",
	sqlfmt.ReturningClause: "returning",
	sqlfmt.ReturningOutput: "output",
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List the registered SQL dialects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, cmd)
		},
	}
}

func runDialects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	infos, err := describeDialects()
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}
	if formatter.JSON() {
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARAM\tQUOTED\tPAGING\tRETURNING")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", info.Name, info.Placeholder, info.Quoted, info.Paging, info.Returning)
	}
	return tw.Flush()
}

func describeDialects() ([]DialectInfo, error) {
	names := dialect.Names()
	infos := make([]DialectInfo, 0, len(names))
	for _, name := range names {
		d, err := dialect.Lookup(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DialectInfo{
			Name:        d.Name(),
			Placeholder: d.Placeholder(0),
			Quoted:      d.QuoteIdentifier("Order"),
			Paging:      pagingNames[d.Paging().Style],
			Returning:   returningNames[d.Returning()],
		})
	}
	return infos, nil
}
