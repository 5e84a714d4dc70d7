package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hantianjz/semhl/internal/colorcache"
	"github.com/hantianjz/semhl/internal/colorgen"
	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/engine"
	"github.com/hantianjz/semhl/internal/events"
	"github.com/hantianjz/semhl/internal/host"
	"github.com/hantianjz/semhl/internal/logging"
	"github.com/hantianjz/semhl/internal/textbuf"
	"github.com/hantianjz/semhl/internal/viewtui"
)

func newViewCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		filetype string
		light    bool
	)

	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Open a file in the interactive highlight viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runView(cfg, args[0], filetype, light)
		},
	}
	cmd.Flags().StringVar(&filetype, "filetype", "", "override the language detected from the file extension")
	cmd.Flags().BoolVar(&light, "light", false, "start with a light background")
	return cmd
}

func runView(cfg *config.Config, path, filetype string, light bool) error {
	log := logging.Component("view")

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if filetype == "" {
		filetype = textbuf.FiletypeForPath(path)
	}
	if !textbuf.SupportedLanguage(filetype) {
		return fmt.Errorf("no identifier grammar for %q (supported: go, lua, python)", filetype)
	}

	world := textbuf.NewWorld()
	if light {
		world.SetBackground("#FAFAFA", host.BackgroundLight)
	} else {
		world.SetBackground("#1C1C1C", host.BackgroundDark)
	}

	pub := events.NewPublisher()
	gen, err := buildGenerator(cfg, world, pub, log)
	if err != nil {
		return err
	}

	eng := engine.New(engine.Options{
		Config:    cfg,
		Host:      world.Host(host.SystemTimers{}),
		Generator: gen,
		Events:    pub,
		Log:       logging.Component("engine"),
	})
	defer eng.Close()

	buf := world.NewBuffer(filetype, string(content))
	if info, err := os.Stat(path); err == nil {
		world.SetFileSize(buf.ID(), info.Size())
	}

	eng.Load(buf.ID())
	if !eng.HasBuffer(buf.ID()) {
		return fmt.Errorf("%s was skipped (larger than %d bytes, or no parser)", path, cfg.MaxFileSize)
	}

	return viewtui.Run(viewtui.Config{
		Path:     path,
		World:    world,
		Engine:   eng,
		Events:   pub,
		Buffer:   buf,
		DarkMode: !light,
	})
}

// buildGenerator wires the color generator to the persistent cache and
// event publisher.
func buildGenerator(cfg *config.Config, colors host.Colorscheme, pub *events.Publisher, log zerolog.Logger) (*colorgen.Generator, error) {
	var store *colorcache.Store
	if !cfg.Cache.Disabled {
		path, err := cfg.CachePath()
		if err != nil {
			return nil, fmt.Errorf("resolving cache path: %w", err)
		}
		store = colorcache.NewStore(path, logging.Component("colorcache"))
	}

	gen := colorgen.New(colorgen.Config{
		MinDeltaE:    cfg.Color.MinDeltaE,
		TargetDeltaE: cfg.Color.TargetDeltaE,
		LMin:         cfg.Color.LMin,
		LMax:         cfg.Color.LMax,
	}, colors, host.SystemTimers{}, store, nil, log)

	if pub != nil {
		gen.SetSaveHook(func() {
			pub.Publish(events.Event{Type: events.EventCacheSaved, Buffer: -1})
		})
	}
	return gen, nil
}
