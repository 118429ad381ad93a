package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/murder-mystery/internal/domain"
)

type Config struct {
	brokers     []string
	topic       string
	characterID string
	category    string
	index       int
	timeout     time.Duration
	verbose     bool
}

func (c *Config) validate() error {
	if len(c.brokers) == 0 {
		return errors.New("at least one --brokers address is required")
	}
	if c.characterID == "" {
		return errors.New("--character is required")
	}
	if !domain.AnswerCategory(c.category).Valid() {
		return fmt.Errorf("invalid category: %q", c.category)
	}
	if c.index < 0 {
		return fmt.Errorf("invalid index (must not be negative): %d", c.index)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "kiosk [answer...]",
		Short: "Publishes answers scanned at a party kiosk for scoring.",
		Long: "Publishes answers scanned at a party kiosk for scoring.\n\n" +
			"With arguments, the joined arguments are sent as one answer. Without,\n" +
			"every non-empty line read from stdin is sent as its own answer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVarP(&cfg.brokers, "brokers", "b", []string{"localhost:9092"}, "kafka brokers (env: KIOSK_BROKERS)")
	fs.StringVarP(&cfg.topic, "topic", "t", "answer-submissions", "topic kiosk answers are published to (env: KIOSK_TOPIC)")
	fs.StringVarP(&cfg.characterID, "character", "c", "", "character the kiosk is scanning for (env: KIOSK_CHARACTER)")
	fs.StringVar(&cfg.category, "category", string(domain.CategoryQR), "answer category: secret, rumor, qr or sentence (env: KIOSK_CATEGORY)")
	fs.IntVarP(&cfg.index, "index", "i", 0, "answer slot index (env: KIOSK_INDEX)")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "time to wait for the broker to acknowledge (env: KIOSK_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: KIOSK_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
