// Command facade opens the facade editor in a window, or replays a session
// script headlessly when -script is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/phanxgames/facade"
	"github.com/phanxgames/facade/catalog"
	"github.com/phanxgames/facade/config"
	"github.com/phanxgames/facade/gallery"
	"github.com/phanxgames/facade/surface"
)

// paletteSize is the number of catalog items bound to the digit keys.
const paletteSize = 9

type options struct {
	configPath  string
	background  string
	script      string
	out         string
	logLevel    string
	galleryPath string
	find        string
	listGallery bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", config.FilePath(), "config file")
	flag.StringVar(&o.background, "background", "", "background image to open (path or URL)")
	flag.StringVar(&o.script, "script", "", "replay a JSON session script without a window")
	flag.StringVar(&o.out, "out", "", "export directory (overrides [export] dir)")
	flag.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.StringVar(&o.galleryPath, "gallery", "", "gallery database (overrides [gallery] path)")
	flag.StringVar(&o.find, "find", "", "search the product catalog and exit")
	flag.BoolVar(&o.listGallery, "list-gallery", false, "list saved projects and exit")
	flag.Parse()

	formatter := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel())
	if o.logLevel != "" {
		lvl, err := log.ParseLevel(o.logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
	}
	if o.out != "" {
		cfg.Export.Dir = o.out
	}
	if o.galleryPath != "" {
		cfg.Gallery.Path = o.galleryPath
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return err
		}
	}

	switch {
	case o.find != "":
		for _, it := range cat.Search(o.find) {
			fmt.Printf("%-12s %s\n", it.ID, it.Name)
		}
		return nil
	case o.listGallery:
		return listGallery(cfg)
	case o.script != "":
		return runScript(ctx, cfg, cat, o.script)
	}
	return runWindow(ctx, cfg, cat, o.background)
}

func newEditor(cfg *config.Config, cat *catalog.Catalog, root string) *facade.Editor {
	ec := cfg.Editor
	return facade.NewEditor(
		facade.WithLogger(log.WithField("prefix", "editor")),
		facade.WithHistoryCapacity(ec.HistoryCapacity),
		facade.WithRotateStep(ec.RotateStep),
		facade.WithScaleStep(ec.ScaleStep),
		facade.WithDragDeadZone(ec.DragDeadZone),
		facade.WithMaxOverlayFraction(ec.MaxOverlayFraction),
		facade.WithDebug(ec.Debug),
		facade.WithLoader(cat.Loader(facade.RefLoader{Root: root})),
	)
}

func runScript(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	script, err := facade.LoadScript(data)
	if err != nil {
		return err
	}
	script.ExportDir = cfg.Export.Dir

	// Relative image paths in a script are relative to the script itself.
	ed := newEditor(cfg, cat, filepath.Dir(path))
	start := time.Now()
	if err := script.Run(ctx, ed); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"steps":    script.Len(),
		"overlays": ed.Scene().Len(),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("script finished")
	for _, p := range script.Exported() {
		fmt.Println(p)
	}
	return nil
}

func runWindow(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, background string) error {
	store, err := gallery.OpenSQLite(cfg.GalleryPath(config.Dir()))
	if err != nil {
		return err
	}
	defer store.Close()

	ed := newEditor(cfg, cat, "")
	if background != "" {
		ed.RequestBackground(ctx, background)
	}

	var palette []surface.PaletteEntry
	for _, it := range cat.Items() {
		if len(palette) == paletteSize {
			break
		}
		palette = append(palette, surface.PaletteEntry{Name: it.Name, Ref: catalog.Ref(it.ID)})
	}

	return surface.Run(ed, surface.Config{
		Title:   cfg.Window.Title,
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Palette: palette,
		Logger:  log.WithField("prefix", "surface"),
		OnSave: func(name string, png []byte) error {
			p := gallery.NewProject(name, png)
			if err := store.Add(p); err != nil {
				return err
			}
			log.WithFields(log.Fields{"id": p.ID, "name": name}).Info("saved to gallery")
			return nil
		},
		OnExport: func(name string, png []byte) (string, error) {
			path, err := facade.WritePNGFile(cfg.Export.Dir, name, png)
			if err != nil {
				return "", err
			}
			log.WithField("path", path).Info("exported")
			return path, nil
		},
	})
}

func listGallery(cfg *config.Config) error {
	store, err := gallery.OpenSQLite(cfg.GalleryPath(config.Dir()))
	if err != nil {
		return err
	}
	defer store.Close()
	projects, err := store.List()
	if err != nil {
		return err
	}
	for _, p := range projects {
		fmt.Printf("%s  %s  %-24s %d bytes\n", p.ID, p.Timestamp.Format(time.RFC3339), p.Name, len(p.PNG))
	}
	return nil
}
