// Command printctl renders a print request offline. It reads the same JSON
// body the HTTP endpoints accept and writes the encoded output, or the render
// plan, to a file or stdout. No device or storage is touched.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	printingapp "github.com/binara/printsvc/internal/application/printing"
	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/config"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/infrastructure/printing/backend"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	kind       string
	input      string
	profile    string
	output     string
	configPath string
	showPlan   bool
	list       bool
	verbose    bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.kind, "kind", "k", "bill", "Document kind: bill, summary or service-cost")
	pflag.StringVarP(&opts.input, "input", "i", "-", "JSON request file, - for stdin")
	pflag.StringVarP(&opts.profile, "profile", "p", "", "Profile name (default: the configured target for the kind)")
	pflag.StringVarP(&opts.output, "output", "o", "-", "Output file, - for stdout")
	pflag.StringVarP(&opts.configPath, "config", "c", "", "Path to config.toml")
	pflag.BoolVar(&opts.showPlan, "plan", false, "Write the render plan instead of encoded output")
	pflag.BoolVarP(&opts.list, "list", "l", false, "List profiles and exit")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	pflag.Parse()

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "printctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	log := zap.NewNop()
	if opts.verbose {
		l, err := logger.New(logger.Config{Level: "debug", Format: "console", Output: "stderr"})
		if err != nil {
			return err
		}
		log = l
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	dispatcher := printingapp.NewDispatcher(
		backend.NewDefaultRegistry(backend.VectorOptions{Creator: "printctl"}),
		printingapp.WithDispatchLogger(log),
	)
	docs := printingapp.NewDocumentFactory(cfg.Print.ClinicName, cfg.Print.Footer, cfg.Print.Location())
	svc := printingapp.NewPrintService(dispatcher, docs, cfg.Profiles, printingapp.Targets{
		Bill:        cfg.Print.BillTarget,
		Summary:     cfg.Print.SummaryTarget,
		ServiceCost: cfg.Print.ServiceCostTarget,
	}, printingapp.WithServiceLogger(log))

	if opts.list {
		return listProfiles(stdout, svc.Targets())
	}

	in, err := openInput(opts.input, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	doc, profile, err := buildDocument(in, opts, svc, docs, cfg)
	if err != nil {
		return err
	}

	p, out, err := dispatcher.Render(ctx, doc, profile)
	if err != nil {
		return err
	}
	if p.Overflow != nil {
		fmt.Fprintln(os.Stderr, "warning:", p.Overflow.Warning())
	}

	w, closeOut, err := openOutput(opts.output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.showPlan {
		_, err = io.WriteString(w, p.String()+"\n")
		return err
	}
	return writeOutput(w, out)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// buildDocument decodes the request for opts.kind and resolves its profile
func buildDocument(r io.Reader, opts options, svc *printingapp.PrintService, docs *printingapp.DocumentFactory, cfg *config.Config) (printing.Document, printing.DeviceProfile, error) {
	dec := json.NewDecoder(r)
	switch strings.ToLower(opts.kind) {
	case "bill":
		var req printingapp.PrintBillRequest
		if err := dec.Decode(&req); err != nil {
			return printing.Document{}, printing.DeviceProfile{}, fmt.Errorf("decode bill: %w", err)
		}
		profile, err := svc.Profile(firstNonEmpty(opts.profile, req.Target), cfg.Print.BillTarget)
		if err != nil {
			return printing.Document{}, printing.DeviceProfile{}, err
		}
		return docs.Bill(req, profile.PageWidth), profile, nil

	case "summary":
		var req printingapp.PrintSummaryRequest
		if err := dec.Decode(&req); err != nil {
			return printing.Document{}, printing.DeviceProfile{}, fmt.Errorf("decode summary: %w", err)
		}
		profile, err := svc.Profile(firstNonEmpty(opts.profile, req.Target), cfg.Print.SummaryTarget)
		if err != nil {
			return printing.Document{}, printing.DeviceProfile{}, err
		}
		return docs.Summary(req), profile, nil

	case "service-cost":
		var req printingapp.PrintServiceCostRequest
		if err := dec.Decode(&req); err != nil {
			return printing.Document{}, printing.DeviceProfile{}, fmt.Errorf("decode service cost report: %w", err)
		}
		profile, err := svc.Profile(firstNonEmpty(opts.profile, req.Target), cfg.Print.ServiceCostTarget)
		if err != nil {
			return printing.Document{}, printing.DeviceProfile{}, err
		}
		return docs.ServiceCost(req), profile, nil

	default:
		return printing.Document{}, printing.DeviceProfile{}, fmt.Errorf("unknown kind %q (want bill, summary or service-cost)", opts.kind)
	}
}

// writeOutput writes raw bytes, or one JSON call per line for device-context output
func writeOutput(w io.Writer, out *printing.Output) error {
	if out.Calls == nil {
		_, err := w.Write(out.Data)
		return err
	}
	enc := json.NewEncoder(w)
	for _, call := range out.Calls {
		if err := enc.Encode(call); err != nil {
			return err
		}
	}
	return nil
}

func listProfiles(w io.Writer, targets []printingapp.TargetResponse) error {
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	for _, t := range targets {
		line := fmt.Sprintf("%-16s %-15s width=%d", t.Name, t.Backend, t.PageWidth)
		if t.Device != "" {
			line += " device=" + t.Device
		}
		if len(t.DefaultOf) > 0 {
			line += " default_for=" + strings.Join(t.DefaultOf, ",")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
