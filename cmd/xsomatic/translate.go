package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/refdata"
)

var alignmentByDatabase = map[string]string{
	"cbio":   refdata.CBioAlignment,
	"cosmic": refdata.CosmicAlignment,
}

func newTranslateCmd() *cobra.Command {
	var (
		alignment string
		database  string
		dataRoot  string
		to        string
	)

	cmd := &cobra.Command{
		Use:   "translate [flags] <GENE_CHANGE>...",
		Short: "Translate mutation notations between dog and human",
		Long: `Translate GENE_CHANGE notations such as TP53_R242W through a human-dog
protein alignment and print, per notation, the outcome and either the
counterpart notation or the reason there is none.`,
		Example: `  xsomatic translate --alignment aln.txt TP53_R242W
  xsomatic translate --database cosmic --data-root /data --to dog TP53_R248W TP53_G255fs`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := alignment
			if path == "" {
				name, ok := alignmentByDatabase[database]
				if !ok {
					return &usageError{cmd: cmd, err: fmt.Errorf("unknown database %q (want cbio or cosmic)", database)}
				}
				layout, err := dataLayout(dataRoot)
				if err != nil {
					return err
				}
				path = layout.Path(name)
			}
			target, err := ortholog.ParseSpecies(to)
			if err != nil {
				return &usageError{cmd: cmd, err: err}
			}

			ix, err := ortholog.LoadIndex(path)
			if err != nil {
				return err
			}
			tr := ortholog.NewTranslator(ix)

			w := cmd.OutOrStdout()
			for _, notation := range args {
				res := tr.TranslateNotation(notation, target)
				detail := res.Notation
				if res.Outcome == ortholog.NoCounterpart {
					detail = res.Reason.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", notation, res.Outcome, detail)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&alignment, "alignment", "", "Alignment table (overrides --database)")
	f.StringVar(&database, "database", "cbio", "Alignment of a reference database: cbio or cosmic")
	f.StringVar(&dataRoot, "data-root", ".", "Data root holding data_source/")
	f.StringVar(&to, "to", "human", "Target species: human or dog")

	return cmd
}
