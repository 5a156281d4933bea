package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tomgalvin.uk/tsclabel/internal/importer"
	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/layoutdsl"
	"tomgalvin.uk/tsclabel/internal/model"
	"tomgalvin.uk/tsclabel/internal/preset"
	"tomgalvin.uk/tsclabel/internal/preview"
	"tomgalvin.uk/tsclabel/internal/printer"
	"tomgalvin.uk/tsclabel/internal/server"
	"tomgalvin.uk/tsclabel/internal/tspl"
)

// jobFlags are the item sources and layout choices shared by print, encode and preview.
type jobFlags struct {
	template string
	texts    []string
	qrs      []string
	barcodes []string

	xlsx      string
	xlsxSheet string

	serial string
	from   int
	to     int
	digits int

	layout string
	preset string
	qty    int
}

func (f *jobFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.template, "template", "t", "", "Template: single-text, double-text, qrcode-with-text, barcode-with-text, grid")
	fs.StringArrayVar(&f.texts, "text", nil, "Item text, repeat for more items")
	fs.StringArrayVar(&f.qrs, "qr", nil, "QR payload of the item at the same position")
	fs.StringArrayVar(&f.barcodes, "barcode", nil, "Barcode payload of the item at the same position")
	fs.StringVar(&f.xlsx, "xlsx", "", "Read items from a workbook")
	fs.StringVar(&f.xlsxSheet, "xlsx-sheet", "", "Workbook sheet (default: first sheet)")
	fs.StringVar(&f.serial, "serial", "", "Generate numbered items with this prefix")
	fs.IntVar(&f.from, "from", 1, "First serial number")
	fs.IntVar(&f.to, "to", 0, "Last serial number")
	fs.IntVar(&f.digits, "digits", 0, "Zero-pad serial numbers to this many digits")
	fs.StringVarP(&f.layout, "layout", "l", "", "Layout file, one job per item")
	fs.StringVar(&f.preset, "preset", "", "Use a stored preset")
	fs.IntVarP(&f.qty, "qty", "n", 0, "Copies of each sheet")
}

func (f *jobFlags) items() ([]label.Item, error) {
	var items []label.Item
	for i, text := range f.texts {
		it := label.Item{Text: text}
		if i < len(f.qrs) {
			it.QRContent = f.qrs[i]
		}
		if i < len(f.barcodes) {
			it.BarcodeContent = f.barcodes[i]
		}
		items = append(items, it)
	}

	if f.xlsx != "" {
		file, err := os.Open(f.xlsx)
		if err != nil {
			return nil, fmt.Errorf("Couldn't open workbook:\n%w", err)
		}
		defer file.Close()
		rows, err := importer.ReadXLSX(file, f.xlsxSheet)
		if err != nil {
			return nil, err
		}
		items = append(items, rows...)
	}

	if f.serial != "" {
		serial, err := importer.Serial{Prefix: f.serial, From: f.from, To: f.to, Width: f.digits}.Items()
		if err != nil {
			return nil, err
		}
		items = append(items, serial...)
	}
	return items, nil
}

// jobs resolves the flags into the configuration and jobs to run.
func (f *jobFlags) jobs() (label.Config, []label.PrintJob, error) {
	base, err := cfg.LabelConfig()
	if err != nil {
		return base, nil, err
	}
	items, err := f.items()
	if err != nil {
		return base, nil, err
	}

	if f.layout != "" {
		return f.layoutJobs(base, items)
	}

	var p *preset.Preset
	if f.preset != "" {
		repo, err := NewRepository(cfg.Database)
		if err != nil {
			return base, nil, err
		}
		defer repo.Close()
		if p, err = repo.GetByName(f.preset); err != nil {
			return base, nil, err
		}
		if p == nil {
			return base, nil, label.ValidationError("preset", "unknown preset %q", f.preset)
		}
	}

	req := model.PrintRequest{Template: f.template, Qty: f.qty}
	for _, it := range items {
		req.Items = append(req.Items, model.ItemRequest{Text: it.Text, QRContent: it.QRContent, BarcodeContent: it.BarcodeContent})
	}
	jobCfg, job, err := req.Job(base, p, cfg.DefaultSheet())
	if err != nil {
		return base, nil, err
	}
	return jobCfg, []label.PrintJob{job}, nil
}

func (f *jobFlags) layoutJobs(base label.Config, items []label.Item) (label.Config, []label.PrintJob, error) {
	file, err := os.Open(f.layout)
	if err != nil {
		return base, nil, fmt.Errorf("Couldn't open layout:\n%w", err)
	}
	defer file.Close()

	l, err := layoutdsl.Parse(filepath.Base(f.layout), file)
	if err != nil {
		return base, nil, label.ValidationError("layout", "%v", err)
	}
	if f.qty > 0 {
		l.Qty = f.qty
	}
	jobs, err := l.Jobs(base, items)
	return base, jobs, err
}

func newRenderer() (*preview.Renderer, error) {
	fonts, err := preview.LoadFonts(cfg.FontFile)
	if err != nil {
		return nil, err
	}
	return preview.NewRenderer(fonts), nil
}

// encodeJobs encodes every job in order. A renderer is only loaded for raster mode.
func encodeJobs(c label.Config, jobs []label.PrintJob) ([][]string, error) {
	var rz tspl.Rasterizer
	if c.Raster {
		r, err := newRenderer()
		if err != nil {
			return nil, err
		}
		rz = r
	}
	enc := tspl.NewEncoder(c, rz)

	var sheets [][]string
	for i, job := range jobs {
		s, err := enc.EncodeJob(job)
		if err != nil {
			return nil, fmt.Errorf("job %d:\n%w", i+1, err)
		}
		sheets = append(sheets, s...)
	}
	return sheets, nil
}

func writeCommands(w io.Writer, sheets [][]string) error {
	for _, sheet := range sheets {
		for _, c := range sheet {
			if _, err := io.WriteString(w, c+"\r\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newSpooler() *printer.Spooler {
	return printer.NewSpooler(slog.Default().With("src", "spooler"), cfg.Dialer(), cfg.Throttle())
}

func deviceSelector() (printer.Selector, error) {
	if cfg.Device == "" {
		return printer.Selector{}, fmt.Errorf("no device given: use --device or TSCLABEL_DEVICE")
	}
	return printer.ParseSelector(cfg.Device)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP print service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labelCfg, err := cfg.LabelConfig()
			if err != nil {
				return err
			}
			repo, err := NewRepository(cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()
			renderer, err := newRenderer()
			if err != nil {
				return err
			}

			s := &server.Server{
				Config:        labelCfg,
				Spooler:       newSpooler(),
				Renderer:      renderer,
				Presets:       repo,
				DefaultDevice: cfg.Device,
				DefaultSheet:  cfg.DefaultSheet(),
				Logger:        slog.Default().With("src", "server"),
			}
			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signalContext()
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				srv.Shutdown(shutdown)
			}()

			slog.Info("Starting print service", "addr", cfg.Listen, "device", cfg.Device, "db", cfg.Database)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("Couldn't serve:\n%w", err)
			}
			return nil
		},
	}
}

func printCommand() *cobra.Command {
	var f jobFlags
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Lay out items and send them to the printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, jobs, err := f.jobs()
			if err != nil {
				return err
			}
			sheets, err := encodeJobs(c, jobs)
			if err != nil {
				return err
			}
			sel, err := deviceSelector()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			res, err := newSpooler().Print(ctx, sel, sheets)
			if err != nil {
				if n := printer.SentSheets(err); n >= 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d sheets were sent\n", n, len(sheets))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d sheets (%d commands) to %s, job %s\n", res.Sheets, res.Commands, sel, res.JobID)
			return nil
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func encodeCommand() *cobra.Command {
	var f jobFlags
	var output string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write the TSPL command stream without printing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, jobs, err := f.jobs()
			if err != nil {
				return err
			}
			sheets, err := encodeJobs(c, jobs)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return writeCommands(cmd.OutOrStdout(), sheets)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("Couldn't create output:\n%w", err)
			}
			if err := writeCommands(file, sheets); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func previewCommand() *cobra.Command {
	var f jobFlags
	var output string
	var index int
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render sheets to a PNG image or a PDF proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			c, jobs, err := f.jobs()
			if err != nil {
				return err
			}
			var sheets []label.PlannedSheet
			for _, job := range jobs {
				planned, err := label.Plan(c, job)
				if err != nil {
					return err
				}
				sheets = append(sheets, planned...)
			}
			renderer, err := newRenderer()
			if err != nil {
				return err
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("Couldn't create output:\n%w", err)
			}
			switch strings.ToLower(filepath.Ext(output)) {
			case ".pdf":
				err = renderer.WritePDF(file, sheets)
			case ".png":
				if index < 0 || index >= len(sheets) {
					err = fmt.Errorf("sheet %d out of range 0..%d", index, len(sheets)-1)
				} else {
					err = renderer.WritePNG(file, sheets[index])
				}
			default:
				err = fmt.Errorf("unknown output format: %s (must be .png or .pdf)", output)
			}
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d sheets)\n", output, len(sheets))
			return nil
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, .png for one sheet or .pdf for all")
	cmd.Flags().IntVar(&index, "index", 0, "Sheet to render for PNG output")
	return cmd
}

func testCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the printer accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := deviceSelector()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			if err := newSpooler().Check(ctx, sel); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Printer %s is reachable\n", sel)
			return nil
		},
	}
}

func presetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage stored label presets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := NewRepository(cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()
			presets, err := repo.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTEMPLATE\tSIZE\tQTY")
			for _, p := range presets {
				fmt.Fprintf(w, "%s\t%s\t%gx%gmm\t%d\n", p.Name, p.Template, p.WidthMM, p.HeightMM, p.Qty)
			}
			return w.Flush()
		},
	}

	var template string
	var qty int
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Store a preset using the current --width, --height, --font-height and --qr-module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := label.ParseTemplate(template)
			if err != nil {
				return err
			}
			p := preset.New(args[0], t, cfg.SheetWidthMM, cfg.SheetHeightMM)
			if cmd.Flags().Changed("font-height") {
				p.FontHeight = cfg.Label.FontHeight
			}
			if cmd.Flags().Changed("qr-module") {
				p.QRModuleSize = cfg.Label.QRModuleSize
			}
			if qty > 0 {
				p.Qty = qty
			}

			repo, err := NewRepository(cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.Transact(func(tx *sql.Tx) error {
				return repo.Create(tx, p)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created preset %s (%s)\n", p.Name, p.Uuid)
			return nil
		},
	}
	add.Flags().StringVarP(&template, "template", "t", "", "Template used by the preset")
	add.Flags().IntVarP(&qty, "qty", "n", 1, "Default copies of each sheet")
	add.MarkFlagRequired("template")

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := NewRepository(cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()
			var deleted bool
			if err := repo.Transact(func(tx *sql.Tx) (err error) {
				deleted, err = repo.Delete(tx, args[0])
				return err
			}); err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no preset named %q", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
