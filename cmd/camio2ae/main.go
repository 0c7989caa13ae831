// Command camio2ae converts a CamIO camera path into an After Effects import
// script, and optionally a keyframe sheet, a path preview and an HTML report.
//
// Usage:
//
//	camio2ae [flags] take.cam
//	camio2ae -serve :8090
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/teranos/camio"
	"github.com/teranos/camio/config"
	"github.com/teranos/camio/hostscript"
	"github.com/teranos/camio/httpapi"
	"github.com/teranos/camio/trip"
)

type options struct {
	configPath     string
	fps            float64
	duration       float64
	width          float64
	height         float64
	nativeAspect   float64
	mode           string
	policy         string
	maxWarnings    int
	camera         string
	scriptPath     string
	sheetPath      string
	previewPath    string
	reportDir      string
	baselineDir    string
	take           string
	updateBaseline bool
	serve          string
	debug          bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("camio2ae", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML conversion profile")
	fs.Float64Var(&opts.fps, "fps", 0, "Composition frame rate")
	fs.Float64Var(&opts.duration, "duration", 0, "Composition duration in seconds, 0 for the whole take")
	fs.Float64Var(&opts.width, "width", 0, "Composition width in pixels")
	fs.Float64Var(&opts.height, "height", 0, "Composition height in pixels")
	fs.Float64Var(&opts.nativeAspect, "native-aspect", 0, "Aspect ratio unscaled FOVs refer to")
	fs.StringVar(&opts.mode, "mode", "", "Rotation mode: auto, matrix or direct")
	fs.StringVar(&opts.policy, "version-policy", "", "Newer CamIO versions: reject, accept or prompt")
	fs.IntVar(&opts.maxWarnings, "max-warnings", 0, "Warnings kept per conversion, 0 keeps all")
	fs.StringVar(&opts.camera, "camera", "", "Name of the camera layer")
	fs.StringVar(&opts.scriptPath, "script", "", "Write the import script here (default stdout)")
	fs.StringVar(&opts.sheetPath, "sheet", "", "Write a YAML keyframe sheet here")
	fs.StringVar(&opts.previewPath, "preview", "", "Write a PNG path preview here")
	fs.StringVar(&opts.reportDir, "report", "", "Write an HTML report below this directory")
	fs.StringVar(&opts.baselineDir, "baseline", "", "Compare with the baseline sheet in this directory")
	fs.StringVar(&opts.take, "take", "", "Baseline name (default input file name)")
	fs.BoolVar(&opts.updateBaseline, "update-baseline", false, "Store the conversion as the new baseline")
	fs.StringVar(&opts.serve, "serve", "", "Serve the HTTP API on this address instead of converting")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logLevel := slog.LevelInfo
	if opts.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(fs, opts)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 2
	}

	if opts.serve != "" {
		if err := httpapi.New(cfg, logger).Run(opts.serve); err != nil {
			logger.Error("http api stopped", "error", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: camio2ae [flags] take.cam")
		fs.PrintDefaults()
		return 2
	}
	input := fs.Arg(0)

	data, err := os.ReadFile(input)
	if err != nil {
		logger.Error("failed to read camio file", "path", input, "error", err)
		return 1
	}

	result, err := convert(cfg, data, logger, promptFor(cfg.VersionPolicy))
	if err != nil {
		reportFailure(stderr, err)
		return 1
	}

	if err := writeOutputs(opts, cfg, input, result, stdout, logger); err != nil {
		logger.Error("failed to write output", "error", err)
		return 1
	}

	if opts.baselineDir != "" {
		if err := checkBaseline(opts, input, result, logger); err != nil {
			logger.Error("baseline check failed", "error", err)
			return 1
		}
	}

	logger.Debug("conversion report", "report", result.Report)
	printSummary(stderr, input, result)
	return 0
}

// loadConfig reads the profile and applies the flags set on the command line.
func loadConfig(fs *flag.FlagSet, opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			cfg.FrameRate = opts.fps
		case "duration":
			cfg.Duration = opts.duration
		case "width":
			cfg.Width = opts.width
		case "height":
			cfg.Height = opts.height
		case "native-aspect":
			cfg.NativeAspect = opts.nativeAspect
		case "mode":
			cfg.RotationMode = opts.mode
		case "version-policy":
			cfg.VersionPolicy = config.VersionPolicy(opts.policy)
		case "max-warnings":
			cfg.MaxWarnings = opts.maxWarnings
		case "camera":
			cfg.CameraName = opts.camera
		}
	})

	return cfg, cfg.Validate()
}

// askFunc confirms converting a file newer than supported.
type askFunc func(declared, supported int) (bool, error)

// promptFor returns the confirmation used for policy. Without a terminal a
// prompt policy behaves like reject.
func promptFor(policy config.VersionPolicy) askFunc {
	if policy != config.VersionPrompt {
		return nil
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return askNewerVersion
}

// convert runs the conversion, asking once when the file is too new.
func convert(cfg config.Config, data []byte, logger *slog.Logger, ask askFunc) (*camio.Result, error) {
	result, err := cfg.Converter().WithLogger(logger).Convert(bytes.NewReader(data))
	if err == nil || ask == nil {
		return result, err
	}

	t, ok := trip.As(err)
	if !ok || t.Kind != trip.UnsupportedVersionKind {
		return nil, err
	}

	accept, askErr := ask(t.Int(trip.KeyDeclared), t.Int(trip.KeySupported))
	if askErr != nil {
		return nil, askErr
	}
	if !accept {
		return nil, err
	}

	logger.Info("converting newer camio version", "declared", t.Int(trip.KeyDeclared))
	return cfg.Converter().
		AllowNewerVersion(true).
		WithLogger(logger).
		Convert(bytes.NewReader(data))
}

func writeOutputs(opts options, cfg config.Config, input string, result *camio.Result, stdout io.Writer, logger *slog.Logger) error {
	scriptOpts := hostscript.Options{CameraName: cfg.CameraName, MinCompWidth: cfg.Width}
	if opts.scriptPath == "" {
		if err := hostscript.Generate(stdout, result, scriptOpts); err != nil {
			return err
		}
	} else {
		if err := writeFile(opts.scriptPath, func(w io.Writer) error {
			return hostscript.Generate(w, result, scriptOpts)
		}); err != nil {
			return err
		}
		logger.Info("import script written", "path", opts.scriptPath)
	}

	if opts.sheetPath != "" {
		if err := writeFile(opts.sheetPath, func(w io.Writer) error {
			return camio.WriteSheet(w, result)
		}); err != nil {
			return err
		}
		logger.Info("keyframe sheet written", "path", opts.sheetPath)
	}

	renderer := camio.NewPathRenderer(camio.DefaultRenderConfig())
	if opts.previewPath != "" {
		if err := renderer.CaptureFrame(opts.previewPath, result.Frames); err != nil {
			return err
		}
		logger.Info("path preview written", "path", opts.previewPath)
	}

	if opts.reportDir != "" {
		report := camio.NewConversionReport(filepath.Base(input), result)

		var png bytes.Buffer
		if err := renderer.Encode(&png, result.Frames); err != nil {
			return err
		}
		report.AttachPreview(png.Bytes())

		dir := filepath.Join(opts.reportDir, report.Timestamp)
		if err := camio.NewHTMLReportGenerator(dir).GenerateReport(report); err != nil {
			return err
		}
		count, err := camio.GenerateDashboard(opts.reportDir)
		if err != nil {
			return err
		}
		logger.Info("report written", "path", filepath.Join(dir, "index.html"), "run_id", report.RunID, "reports", count)
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func checkBaseline(opts options, input string, result *camio.Result, logger *slog.Logger) error {
	name := opts.take
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	supervisor := camio.NewSupervisor(opts.baselineDir)
	if opts.updateBaseline {
		if err := supervisor.SetBaseline(name, result); err != nil {
			return err
		}
		logger.Info("baseline updated", "take", name)
		return nil
	}

	if err := supervisor.ValidateConsistency(name, result); err != nil {
		return err
	}
	logger.Info("baseline matches", "take", name)
	return nil
}

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

func printSummary(w io.Writer, input string, result *camio.Result) {
	fmt.Fprintf(w, "%s %s: %d keyframes, %s rotation %s\n",
		okStyle.Render("✓"),
		filepath.Base(input),
		len(result.Frames),
		result.Mode,
		dimStyle.Render(fmt.Sprintf("(CamIO v%d, %s fov)", result.Header.Version, result.Header.FOVMode)),
	)
	fmt.Fprintln(w, dimStyle.Render("  "+result.Summary))
	for _, warning := range result.Warnings {
		fmt.Fprintln(w, warnStyle.Render("  ! "+warning.Message))
	}
	if result.Dropped > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  ... and %d more", result.Dropped)))
	}
}

func reportFailure(w io.Writer, err error) {
	if t, ok := trip.As(err); ok {
		fmt.Fprintln(w, failStyle.Render("✗ "+string(t.Kind)))
		fmt.Fprintln(w, t.DetailedString())
		return
	}
	fmt.Fprintln(w, failStyle.Render("✗ "+err.Error()))
}
