package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ayusman/handcontrol/internal/app"
	"github.com/ayusman/handcontrol/internal/capture"
	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/drag"
	"github.com/ayusman/handcontrol/internal/positions"
	"github.com/ayusman/handcontrol/internal/server"
	"github.com/ayusman/handcontrol/internal/surface"
	"github.com/ayusman/handcontrol/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the page and track the hand while enabled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	f.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "directory with the page assets (searched for when empty)")
	f.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	f.StringVar(&cfg.Variant, "variant", cfg.Variant, "deployment variant (compact or hd)")
	f.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "landmark smoothing factor")
	f.StringVar(&cfg.ScrollContainer, "scroll-container", cfg.ScrollContainer, "id of the element scrolled by the open hand")
	f.StringSliceVar(&cfg.Draggable, "draggable", cfg.Draggable, "marker classes of grabbable panels")
	f.StringSliceVar(&cfg.Transient, "transient", cfg.Transient, "marker classes whose positions are not remembered")
	f.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show a system tray menu")
	f.BoolVar(&cfg.AutoStart, "autostart", cfg.AutoStart, "start tracking immediately")
	f.BoolVar(&cfg.HostBridge, "host-bridge", cfg.HostBridge, "forward the raw wrist position to connected pages")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pos := positions.New(st.Settings(), cfg.PositionsKey)
	layout := surface.NewLayout()

	estimator := detector.NewMediaPipeEstimator()
	defer estimator.Close()

	hc := app.New(app.Config{
		Estimator:       estimator,
		Camera:          capture.NewCamera(cfg.CameraID, profile.Resolution),
		Surface:         layout,
		Positions:       pos,
		Options:         profile.Options,
		Smoothing:       cfg.Smoothing,
		ScrollContainer: cfg.ScrollContainer,
		Drag:            drag.Config{Draggable: cfg.Draggable, Transient: cfg.Transient},
	})

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		slog.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Layout:    layout,
		Positions: pos,
		Tracker:   hc,
		Frames:    hc,
		Context:   ctx,
	})
	hc.OnStatus(srv.Hub().PublishStatus)
	if cfg.HostBridge {
		hc.SetBridge(srv.Hub())
	}

	slog.Info("hand control ready",
		"variant", profile.Name,
		"resolution", profile.Resolution.String(),
		"camera", cfg.CameraID,
		"db", st.Path())

	if cfg.AutoStart {
		if err := hc.Start(ctx); err != nil {
			slog.Error("failed to start tracking", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.HTTPAddr)
	}()

	if cfg.Tray {
		t := tray.New()
		t.OnToggle(func(enabled bool) {
			if !enabled {
				hc.Stop()
				return
			}
			if err := hc.Start(ctx); err != nil {
				slog.Error("failed to start tracking", "error", err)
			}
		})
		t.OnOpen(func() {
			if err := openBrowser(pageURL(cfg.HTTPAddr)); err != nil {
				slog.Warn("failed to open browser", "error", err)
			}
		})
		t.OnResetPositions(func() {
			if err := pos.Reset(); err != nil {
				slog.Error("failed to reset positions", "error", err)
			}
		})
		t.OnQuit(cancel)
		t.SetStatus(hc.Status())
		hc.OnStatus(t.SetStatus)

		go func() {
			select {
			case <-ctx.Done():
			case err := <-errCh:
				errCh <- err
			}
			t.Quit()
		}()
		t.Run()
		cancel()
	}

	err = <-errCh
	slog.Info("shutting down...")
	hc.Stop()
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// pageURL is the local address of the served page.
func pageURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
