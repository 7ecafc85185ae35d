package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-gpu-raytracer/pkg/core"
	"github.com/df07/go-gpu-raytracer/pkg/gpu"
	"github.com/df07/go-gpu-raytracer/pkg/output"
	"github.com/df07/go-gpu-raytracer/pkg/renderer"
	"github.com/df07/go-gpu-raytracer/pkg/scene"
	"github.com/df07/go-gpu-raytracer/pkg/session"
)

// cliOptions holds everything parsed from the command line
type cliOptions struct {
	sceneID   string
	config    renderer.Config
	passes    int
	shaderDir string
	emulate   bool
	fallback  bool
	format    output.Format
	outPath   string
	scale     int
	list      bool
	help      bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	if opts.list {
		for _, info := range scene.ListScenes() {
			fmt.Printf("  %-12s %s\n", info.ID, info.Description)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path, err := run(ctx, opts, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", path)
}

// parseFlags reads the command line into options and a validated render configuration.
// -help prints the usage to out and returns flag.ErrHelp.
func parseFlags(args []string, out io.Writer) (cliOptions, error) {
	defaults := renderer.DefaultConfig()
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { printHelp(out, fs) }

	var opts cliOptions
	var backendName, formatName string
	var seed uint

	fs.StringVar(&opts.sceneID, "scene", "default", "Scene to render (see -list)")
	fs.IntVar(&opts.config.Width, "width", defaults.Width, "Image width in pixels")
	fs.IntVar(&opts.config.Height, "height", defaults.Height, "Image height in pixels")
	fs.IntVar(&opts.config.SamplesPerPixel, "spp", defaults.SamplesPerPixel, "Samples per pixel per pass")
	fs.IntVar(&opts.config.MaxBounces, "bounces", defaults.MaxBounces, "Maximum ray bounce depth")
	fs.IntVar(&opts.config.NumWorkers, "workers", defaults.NumWorkers, "CPU workers (0 = use CPU count)")
	fs.StringVar(&backendName, "backend", defaults.Backend.String(), "Render backend: 'cpu' or 'gpu'")
	fs.IntVar(&opts.passes, "passes", 1, "Progressive passes to accumulate")
	fs.UintVar(&seed, "seed", uint(defaults.Seed), "Base random seed")
	fs.StringVar(&opts.shaderDir, "shader-dir", "", "Load the GPU kernel from this directory instead of the embedded copy")
	fs.BoolVar(&opts.emulate, "emulate-kernel", false, "Run the GPU kernel on the CPU emulator instead of a device")
	fs.BoolVar(&opts.fallback, "fallback", false, "Fall back to the CPU backend when the GPU backend fails")
	fs.StringVar(&formatName, "format", string(output.FormatPNG), "Output format: png, tiff or bmp")
	fs.StringVar(&opts.outPath, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	fs.IntVar(&opts.scale, "scale", 1, "Enlarge the saved image by this integer factor")
	fs.BoolVar(&opts.list, "list", false, "List the available scenes")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.help {
		fs.Usage()
		return opts, flag.ErrHelp
	}

	backend, err := renderer.ParseBackend(backendName)
	if err != nil {
		return opts, err
	}
	opts.config.Backend = backend
	opts.config.Seed = uint32(seed)

	if opts.format, err = output.ParseFormat(formatName); err != nil {
		return opts, err
	}
	if opts.passes < 1 {
		return opts, fmt.Errorf("%w: passes must be positive, got %d", renderer.ErrInvalidConfig, opts.passes)
	}
	if opts.list {
		return opts, nil
	}
	return opts, opts.config.Validate()
}

// sessionOptions translates the command line into session options
func sessionOptions(opts cliOptions, logger core.Logger) []session.Option {
	sessionOpts := []session.Option{session.WithLogger(logger)}
	if opts.fallback {
		sessionOpts = append(sessionOpts, session.WithCPUFallback())
	}

	var gpuOpts []gpu.Option
	if opts.shaderDir != "" {
		gpuOpts = append(gpuOpts, gpu.WithShaderSource(gpu.DirShaders{Dir: opts.shaderDir}))
	}
	if opts.emulate {
		gpuOpts = append(gpuOpts, gpu.WithEmulation())
	}
	if len(gpuOpts) > 0 {
		sessionOpts = append(sessionOpts, session.WithGPUOptions(gpuOpts...))
	}
	return sessionOpts
}

// run renders the selected scene and saves the final pass, returning the output path
func run(ctx context.Context, opts cliOptions, logger core.Logger) (string, error) {
	selectedScene, err := scene.Load(opts.sceneID)
	if err != nil {
		return "", err
	}

	sess, err := session.Open(opts.config, selectedScene, sessionOptions(opts, logger)...)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	cfg := opts.config
	logger.Printf("Rendering %q on the %s backend: %dx%d, %d spp x %d passes, %d bounces\n",
		opts.sceneID, sess.Backend(), cfg.Width, cfg.Height, cfg.SamplesPerPixel, opts.passes, cfg.MaxBounces)

	startTime := time.Now()
	passChan, errChan := sess.Progressive(ctx, opts.passes)

	var final *renderer.PixelBuffer
	for result := range passChan {
		final = result.Buffer
	}
	if err := <-errChan; err != nil {
		return "", err
	}
	if final == nil {
		return "", fmt.Errorf("%w: no pass completed", renderer.ErrCancelled)
	}
	logger.Printf("Render completed in %v\n", time.Since(startTime))

	path := opts.outPath
	if path == "" {
		timestamp := time.Now().Format("20060102_150405")
		path = filepath.Join("output", opts.sceneID, "render_"+timestamp+opts.format.Extension())
	}
	if err := output.Save(path, final, opts.format, opts.scale); err != nil {
		return "", err
	}
	return path, nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Sphere Path Tracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, info := range scene.ListScenes() {
		fmt.Fprintf(w, "  %-12s %s\n", info.ID, info.Description)
	}
}
