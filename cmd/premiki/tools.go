package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/erazemk/premiki/internal/report"
	"github.com/erazemk/premiki/internal/store"
)

func cmdImport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("import", stdout)
	path := fs.String("file", "-", "")

	_, database, cleanup, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer cleanup()

	var src io.Reader = os.Stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	lines, err := store.ReadItemNames(src)
	if err != nil {
		return err
	}
	created, err := store.ImportItems(ctx, database, lines)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created %d of %d listed items.\n", created, len(lines))
	return nil
}

func cmdReport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("report", stdout)
	from := fs.String("from", "", "")
	to := fs.String("to", "", "")
	asCSV := fs.Bool("csv", false, "")

	_, database, cleanup, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if *from == "" || *to == "" {
		return errors.New("report needs -from and -to")
	}
	start, err := report.ParseTimestamp(*from)
	if err != nil {
		return err
	}
	end, err := report.ParseTimestamp(*to)
	if err != nil {
		return err
	}

	result, err := report.NewEngine(database).Generate(ctx, start, end)
	if err != nil {
		return err
	}

	if *asCSV {
		return report.WriteCSV(stdout, result.Rows)
	}
	return report.WriteTable(stdout, result)
}
