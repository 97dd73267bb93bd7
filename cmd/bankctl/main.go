// Command bankctl exports and inspects question bank files offline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/mind-engage/quizbank/internal/bankio"
	"github.com/mind-engage/quizbank/internal/question"
)

// PasswordEnv supplies the password when stdin is not a terminal.
const PasswordEnv = "QUIZBANK_PASSWORD"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, ttyPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "bankctl:", err)
		os.Exit(1)
	}
}

type promptFactory func(label string, stderr io.Writer) bankio.PasswordPrompt

func run(ctx context.Context, args []string, stdout, stderr io.Writer, prompt promptFactory) error {
	if len(args) == 0 {
		return errors.New("usage: bankctl export|import [flags]")
	}
	switch args[0] {
	case "export":
		return runExport(ctx, args[1:], stdout, stderr, prompt)
	case "import":
		return runImport(ctx, args[1:], stdout, stderr, prompt)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer, prompt promptFactory) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "bank file to export (plain or encrypted)")
	out := fs.String("out", ".", "output directory")
	encrypt := fs.Bool("encrypt", false, "encrypt the export with a password")
	pretty := fs.Bool("pretty", false, "indent the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("export: -in is required")
	}

	p, err := parseFile(ctx, *in, prompt("Password for "+filepath.Base(*in), stderr))
	if err != nil {
		return err
	}
	if p.Kind != bankio.PayloadBank {
		return errors.New("export: input is a question list, not a bank")
	}

	opts := bankio.ExportOptions{Pretty: *pretty}
	if *encrypt {
		pw, ok, err := prompt("Export password", stderr)(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("export: cancelled")
		}
		opts.Password = pw
	}
	res, err := bankio.Export(*p.Bank, opts)
	if err != nil {
		return err
	}
	if res.Warning != nil {
		fmt.Fprintln(stderr, "warning:", res.Warning)
	}
	dst := filepath.Join(*out, res.Filename)
	if err := os.WriteFile(dst, res.Data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d questions, encrypted=%t)\n", dst, len(p.Bank.Questions), res.Encrypted)
	return nil
}

func runImport(ctx context.Context, args []string, stdout, stderr io.Writer, prompt promptFactory) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "bank or question list file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("import: -in is required")
	}
	p, err := parseFile(ctx, *in, prompt("Password for "+filepath.Base(*in), stderr))
	if bankio.IsKind(err, bankio.KindUserCancelled) {
		fmt.Fprintln(stdout, "import cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	if p.Bank != nil {
		fmt.Fprintf(stdout, "bank %q (%s)\n", p.Bank.Name, p.Bank.ID)
	}
	fmt.Fprintf(stdout, "%d questions, encrypted=%t\n", len(p.Questions), p.Encrypted)
	counts := map[question.Type]int{}
	for _, q := range p.Questions {
		counts[q.ResolvedType()]++
	}
	types := make([]string, 0, len(counts))
	for t, n := range counts {
		types = append(types, fmt.Sprintf("  %s: %d", t, n))
	}
	sort.Strings(types)
	fmt.Fprintln(stdout, strings.Join(types, "\n"))
	return nil
}

func parseFile(ctx context.Context, path string, prompt bankio.PasswordPrompt) (bankio.Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return bankio.Payload{}, err
	}
	return bankio.Parse(ctx, raw, prompt)
}

// ttyPrompt reads a password without echo. Off a terminal the password
// comes from PasswordEnv; empty input cancels either way.
func ttyPrompt(label string, stderr io.Writer) bankio.PasswordPrompt {
	return func(context.Context) (string, bool, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			pw := os.Getenv(PasswordEnv)
			return pw, pw != "", nil
		}
		fmt.Fprintf(stderr, "%s: ", label)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(stderr)
		if err != nil {
			return "", false, err
		}
		return string(b), len(b) > 0, nil
	}
}
