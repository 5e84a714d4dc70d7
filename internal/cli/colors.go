package cli

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hantianjz/semhl/internal/colorgen"
	"github.com/hantianjz/semhl/internal/colormath"
	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/host"
	"github.com/hantianjz/semhl/internal/logging"
	"github.com/hantianjz/semhl/internal/textbuf"
)

func newColorsCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		count int
		seed  int64
		light bool
	)

	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Generate sample colors against the configured background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runColors(cmd, cfg, count, seed, light)
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of colors to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = time-seeded)")
	cmd.Flags().BoolVar(&light, "light", false, "generate against a light background")
	return cmd
}

func runColors(cmd *cobra.Command, cfg *config.Config, count int, seed int64, light bool) error {
	world := textbuf.NewWorld()
	bgHex := "#1C1C1C"
	if light {
		world.SetBackground("#FAFAFA", host.BackgroundLight)
		bgHex = "#FAFAFA"
	} else {
		world.SetBackground(bgHex, host.BackgroundDark)
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	// No persistence: sampling must not touch the shared cache file.
	gen := colorgen.New(colorgen.Config{
		MinDeltaE:    cfg.Color.MinDeltaE,
		TargetDeltaE: cfg.Color.TargetDeltaE,
		LMin:         cfg.Color.LMin,
		LMax:         cfg.Color.LMax,
	}, world, nil, nil, rng, logging.Component("colors"))

	bg, err := colormath.HexToLab(bgHex)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "fingerprint: %s\n", gen.Fingerprint())
	for i := 0; i < count; i++ {
		hex := gen.Generate()
		lab, err := colormath.HexToLab(hex)
		if err != nil {
			return fmt.Errorf("generated unparseable color %q: %w", hex, err)
		}
		swatch := lipgloss.NewStyle().
			Foreground(lipgloss.Color(hex)).
			Background(lipgloss.Color(bgHex)).
			Render("██ sample ██")
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  L=%5.1f  ΔE=%5.1f\n",
			swatch, hex, lab.L, colormath.DeltaE(lab, bg))
	}
	return nil
}
