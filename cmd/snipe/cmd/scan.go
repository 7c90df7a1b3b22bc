package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1ts-org/snipe/internal/backend"
	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
	"github.com/1ts-org/snipe/internal/registry"
	"github.com/1ts-org/snipe/internal/store"
)

var (
	scanDump      string
	scanSynthetic int
	scanFilter    string
	scanLimit     int
	scanNoStyle   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Replay a message dump through the store and print what a filter shows",
	Long: `scan loads messages into the store — from a JSON-lines dump, a
synthetic feed, or both — then walks the merged order and prints every
message the filter shows, decorated with the configured rule styles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanDump == "" && scanSynthetic == 0 {
			return errors.New("nothing to scan: pass --dump and/or --synthetic")
		}

		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		st := store.New()
		var feeds []backend.Feed
		if scanDump != "" {
			feeds = append(feeds, backend.JSONLFeed{Path: scanDump})
		}
		if scanSynthetic > 0 {
			feeds = append(feeds, backend.SyntheticFeed{Count: scanSynthetic})
		}
		pump := backend.NewPump(st, feeds...).WithLogger(logger)
		if err := pump.Run(cmd.Context()); err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
		logger.Debug("store loaded", "messages", st.Len())

		stack, err := buildStack(reg)
		if err != nil {
			return err
		}
		cfg.DecorateStack(stack, logger)

		shown := 0
		cursor := store.BeforeFirst()
		for scanLimit <= 0 || shown < scanLimit {
			m, err := st.Find(cursor, store.Forward, stack, reg)
			if errors.Is(err, store.ErrBoundary) {
				break
			}
			if err != nil {
				return err
			}
			printMessage(cmd, m, stack, reg)
			cursor = store.AtMessage(m)
			shown++
		}
		logger.Debug("scan finished", "shown", shown, "total", st.Len())
		return nil
	},
}

// buildStack assembles the view stack for one scan: the registry default
// (or the configured default filter text) at the bottom, the --filter
// argument pushed on top.
func buildStack(reg *registry.Registry) (*filter.Stack, error) {
	stack := filter.NewStack()
	if def, ok := reg.Default(); ok {
		stack.SetDefault(def)
	} else if cfg.DefaultFilter != "" {
		f, err := filter.Parse(cfg.DefaultFilter)
		if err == nil {
			err = filter.Validate(f, message.KnownField)
		}
		if err != nil {
			return nil, fmt.Errorf("default_filter in config: %w", err)
		}
		stack.SetDefault(f)
	}
	stack.Reset()

	if scanFilter != "" {
		if err := stack.PushText(scanFilter); err != nil {
			return nil, fmt.Errorf("--filter: %w", err)
		}
	}
	return stack, nil
}

func printMessage(cmd *cobra.Command, m *message.Message, stack *filter.Stack, r filter.Resolver) {
	line := formatMessage(m)
	if !scanNoStyle {
		if style, ok := stack.DecorationFor(m, r); ok {
			line = style.Lipgloss().Render(line)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

// formatMessage renders one message as a single log line:
// time [backend] sender class/instance: body (first line only).
func formatMessage(m *message.Message) string {
	var b strings.Builder
	b.WriteString(m.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, " [%s]", m.Backend)
	if m.Sender != "" {
		b.WriteByte(' ')
		b.WriteString(m.Sender)
	}
	if m.Class != "" {
		fmt.Fprintf(&b, " %s", m.Class)
		if m.Instance != "" {
			fmt.Fprintf(&b, "/%s", m.Instance)
		}
	}
	body := m.Body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	b.WriteString(": ")
	b.WriteString(body)
	return b.String()
}

func init() {
	scanCmd.Flags().StringVar(&scanDump, "dump", "", "JSON-lines message dump to replay")
	scanCmd.Flags().IntVar(&scanSynthetic, "synthetic", 0, "also feed N synthetic messages")
	scanCmd.Flags().StringVarP(&scanFilter, "filter", "f", "", "filter text pushed on top of the default")
	scanCmd.Flags().IntVarP(&scanLimit, "limit", "n", 0, "stop after printing N messages (0 = all)")
	scanCmd.Flags().BoolVar(&scanNoStyle, "no-style", false, "print plain lines, skip decoration styles")
	rootCmd.AddCommand(scanCmd)
}
