package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-fmtemplate"
)

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [schemas...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint schemas for template directive and list marker problems.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"examples/catalog/schema.json"}
	}

	ctx := context.Background()
	l := fmtemplate.NewLoader(fmtemplate.NewFileSystem(""), nil)

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, l, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if report(os.Stderr, violations) > 0 {
		os.Exit(1)
	}
}

func report(w io.Writer, violations []violation) int {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(w, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return len(violations)
}
