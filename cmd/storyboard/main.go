package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ivlev/storyboard/internal/api"
	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/export"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/source"
	"github.com/ivlev/storyboard/internal/surface/raster"
	"github.com/ivlev/storyboard/internal/system"
	"github.com/ivlev/storyboard/internal/timeline"
	"github.com/ivlev/storyboard/internal/tui"
)

var buildVersion = "dev"

const usage = `storyboard <command> [flags]

commands:
  preview   play the timeline in the terminal
  snapshot  render one frame to a PNG
  export    write the render job payload, optionally submitting it
  serve     run the preview control API

run "storyboard <command> -h" for flags`

// options are the flags shared by every command
type options struct {
	cfg     *config.Config
	content string
	bgm     string
	save    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	system.InitResourceLimits()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "preview":
		err = runPreview(ctx, args)
	case "snapshot":
		err = runSnapshot(ctx, args)
	case "export":
		err = runExport(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "version":
		fmt.Println(buildVersion)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[-] %s: %v", os.Args[1], err)
	}
}

// parseFlags layers command line flags over the settings file and
// environment. Only flags that were set override.
func parseFlags(name string, args []string, extra func(fs *flag.FlagSet)) (*options, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPtr := fs.String("config", "", "Settings YAML (defaults, STORYBOARD_* env overrides apply on top)")
	contentPtr := fs.String("content", "", "Scene feed YAML, image folder, image or PDF (default: newest YAML in input/)")
	aspectPtr := fs.String("aspect", "", "Aspect ratio, e.g. 9/16, 16/9, 1/1")
	fpsPtr := fs.Int("fps", 0, "Preview frame rate")
	workersPtr := fs.Int("workers", runtime.NumCPU(), "Concurrent texture loads")
	logLevelPtr := fs.String("log-level", "", "error, warning, info or debug")
	policyPtr := fs.String("policy", "", "Total duration policy: trailing or between")
	assetRootPtr := fs.String("asset-root", "", "Directory relative image paths resolve against")
	bgmPtr := fs.String("bgm", "", `Background music; scene durations are fitted to its length ("auto": newest audio in input/)`)
	savePtr := fs.String("save-timeline", "", "Write the resulting timeline to this YAML file")
	statsPtr := fs.Bool("stats", false, "Print a performance report on exit")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "aspect":
			cfg.Aspect = *aspectPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		case "policy":
			cfg.Policy = timeline.BoundaryPolicy(*policyPtr)
		case "asset-root":
			cfg.AssetRoot = *assetRootPtr
		}
	})
	cfg.ShowStats = *statsPtr
	cfg.BuildVersion = buildVersion
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()})))

	return &options{cfg: cfg, content: *contentPtr, bgm: *bgmPtr, save: *savePtr}, nil
}

func newLoader(ctx context.Context, cfg *config.Config, content string) assets.Loader {
	root := cfg.AssetRoot
	if ext := filepath.Ext(content); root == "" && (ext == ".yaml" || ext == ".yml") {
		root = filepath.Dir(content)
	}

	httpFetcher := assets.NewHTTPFetcher()
	mux := assets.NewMux().
		Handle("file", &assets.FileFetcher{Root: root}).
		Handle("http", httpFetcher).
		Handle("https", httpFetcher).
		HandlePDF(&assets.PDFLoader{Root: root, DPI: cfg.PDFDPI})

	if client, err := assets.NewS3Client(ctx, cfg.AWSProfile, cfg.AWSRegion); err == nil {
		mux.Handle("s3", assets.NewS3Fetcher(client))
	} else {
		slog.Warn("s3 sources disabled", "error", err)
	}
	return mux
}

// newSession builds the session and loads the content into it
func newSession(ctx context.Context, o *options, factory engine.SurfaceFactory) (*engine.Session, error) {
	if o.content == "" {
		latest, err := system.FindLatest("input", system.ContentExt)
		if err != nil {
			return nil, fmt.Errorf("%v. Put a scenes YAML into input/ or pass -content", err)
		}
		o.content = latest
		fmt.Fprintf(os.Stderr, "[*] Selected content: %s\n", o.content)
	}

	session, err := engine.NewSession(ctx, o.cfg, newLoader(ctx, o.cfg, o.content), factory, slog.Default())
	if errors.Is(err, engine.ErrStageInit) {
		log.Printf("[!] %v. Preview frames are unavailable until the aspect is set again", err)
	} else if err != nil {
		return nil, err
	}

	src, err := source.Open(o.content)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contents, err := src.Contents()
	if err != nil {
		return nil, err
	}
	if err := session.ApplyContent(ctx, contents); err != nil {
		return nil, err
	}

	if o.bgm == "auto" {
		latest, err := system.FindLatest("input", system.AudioExt)
		if err != nil {
			log.Printf("[!] No background music found: %v", err)
		}
		o.bgm = latest
	}
	if o.bgm != "" {
		dur, err := system.GetAudioDuration(o.bgm)
		if err != nil {
			log.Printf("[!] Failed to read audio duration: %v", err)
		} else if err := session.FitDuration(ctx, dur); err != nil {
			log.Printf("[!] Failed to fit scenes to audio: %v", err)
		} else {
			fmt.Fprintf(os.Stderr, "[*] Scenes fitted to audio: %.2fs\n", dur)
		}
	}

	st := session.Status()
	fmt.Fprintf(os.Stderr, "[*] Scenes: %d | Duration: %.2fs | Aspect: %s @ %d FPS\n", st.Count, st.Total, st.Aspect, o.cfg.FPS)

	if o.save != "" {
		if err := timeline.WriteFile(session.Timeline(), o.save); err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "[*] Timeline saved: %s\n", o.save)
	}
	return session, nil
}

func submitter(ctx context.Context, cfg *config.Config) (export.Submitter, error) {
	switch {
	case cfg.RenderEndpoint != "":
		return export.NewHTTPSubmitter(cfg.RenderEndpoint, cfg.StatusURL), nil
	case cfg.S3Bucket != "":
		client, err := assets.NewS3Client(ctx, cfg.AWSProfile, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return export.NewS3Submitter(client, cfg.S3Bucket, cfg.StatusURL), nil
	}
	return nil, nil
}

func report(ctx context.Context, o *options, start time.Time, session *engine.Session, frames int) {
	if !o.cfg.ShowStats {
		return
	}
	st := system.Collect(ctx, start)
	st.Textures, st.Fetches = session.CacheStats()
	st.Frames = frames
	st.Build = o.cfg.BuildVersion
	st.Report(os.Stdout)
}

func runPreview(ctx context.Context, args []string) error {
	start := time.Now()
	o, err := parseFlags("preview", args, nil)
	if err != nil {
		return err
	}
	session, err := newSession(ctx, o, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := tui.Run(session, o.cfg.FPS); err != nil {
		return err
	}
	report(ctx, o, start, session, 0)
	return nil
}

func runSnapshot(ctx context.Context, args []string) error {
	start := time.Now()
	var at float64
	var out string
	o, err := parseFlags("snapshot", args, func(fs *flag.FlagSet) {
		fs.Float64Var(&at, "at", 0, "Elapsed time of the frame in seconds")
		fs.StringVar(&out, "out", "", "PNG path (default: output/frame_<time>.png)")
	})
	if err != nil {
		return err
	}

	session, err := newSession(ctx, o, raster.Factory)
	if err != nil {
		return err
	}
	defer session.Close()

	if out == "" {
		if err := os.MkdirAll("output", 0755); err != nil {
			return err
		}
		out = filepath.Join("output", fmt.Sprintf("frame_%s.png", time.Now().Format("2006-01-02_15-04-05")))
	}

	st := session.SeekTime(at)
	frames := 0
	err = session.WithSurface(func(s render.Surface) error {
		surface, ok := s.(*raster.Surface)
		if !ok {
			return fmt.Errorf("surface %T cannot write PNG", s)
		}
		frames = surface.Frames()
		return surface.WritePNG(out)
	})
	if err != nil {
		return err
	}
	fmt.Printf("[+++] %s at %.2fs saved: %s\n", st.Label(), st.Elapsed, out)
	report(ctx, o, start, session, frames)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	start := time.Now()
	var out, format, from string
	var submit, qr bool
	o, err := parseFlags("export", args, func(fs *flag.FlagSet) {
		fs.StringVar(&from, "from", "", "Export a timeline saved with -save-timeline instead of loading content")
		fs.StringVar(&out, "out", "", "Payload path (default: stdout)")
		fs.StringVar(&format, "format", "json", "Payload format: json or yaml")
		fs.BoolVar(&submit, "submit", false, "Submit the payload to the configured render endpoint or S3 bucket")
		fs.BoolVar(&qr, "qr", true, "Print the job status link as a QR code after submitting")
	})
	if err != nil {
		return err
	}

	var payload *export.Payload
	var session *engine.Session
	if from != "" {
		tl, err := timeline.ReadFile(from)
		if err != nil {
			return err
		}
		if tl.FPS == 0 {
			tl.FPS = o.cfg.FPS
		}
		if tl.Resolution == "" {
			tl.Resolution = o.cfg.Resolution
		}
		if payload, err = export.Build(tl, o.cfg.Settings); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[*] Saved timeline: %d scenes, %.2fs\n", tl.Len(), payload.Duration())
	} else {
		session, err = newSession(ctx, o, nil)
		if err != nil {
			return err
		}
		defer session.Close()

		if payload, err = session.Export(); err != nil {
			return err
		}
	}

	var data []byte
	switch format {
	case "yaml":
		data, err = payload.YAML()
	default:
		data, err = payload.JSON()
	}
	if err != nil {
		return err
	}
	if out == "" {
		os.Stdout.Write(data)
		fmt.Println()
	} else {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		fmt.Printf("[*] Payload written: %s\n", out)
	}

	if submit {
		sub, err := submitter(ctx, o.cfg)
		if err != nil {
			return err
		}
		if sub == nil {
			return errors.New("no render endpoint or S3 bucket configured")
		}
		receipt, err := sub.Submit(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Printf("[+++] Render job submitted: %s\n", receipt.JobID)
		if receipt.StatusURL != "" {
			fmt.Printf("[*] Status: %s\n", receipt.StatusURL)
		}
		if qr {
			code, err := receipt.QR()
			if err != nil {
				log.Printf("[!] Failed to draw QR code: %v", err)
			} else {
				fmt.Print(code)
			}
		}
	}
	if session != nil {
		report(ctx, o, start, session, 0)
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	var listen string
	o, err := parseFlags("serve", args, func(fs *flag.FlagSet) {
		fs.StringVar(&listen, "listen", "", "Listen address (default from config, :8080)")
	})
	if err != nil {
		return err
	}
	if listen != "" {
		o.cfg.Listen = listen
	}

	session, err := newSession(ctx, o, raster.Factory)
	if err != nil {
		return err
	}
	defer session.Close()

	sub, err := submitter(ctx, o.cfg)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Preview API on %s\n", o.cfg.Listen)
	return api.NewServer(session, sub).Run(ctx, o.cfg.Listen)
}
