package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/antoniostano/rin/internal/app"
	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the remembered conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		owner, _ := store.Owner()
		printHistory(cmd.OutOrStdout(), store.History(historyLimit), owner, cfg.AssistantName, newChatStyles())
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget everything Rin remembers, owner included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		store.Reset(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Memory cleared.")
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner [name]",
	Short: "Show or set the owner's name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("owner name is empty")
			}
			store.SetOwner(cmd.Context(), name)
			fmt.Fprintf(out, "Owner set to %s.\n", name)
			return nil
		}
		if name, ok := store.Owner(); ok {
			fmt.Fprintln(out, name)
			return nil
		}
		fmt.Fprintln(out, "No owner yet.")
		return nil
	},
}

func openStore(ctx context.Context) (*memory.Store, error) {
	detector, err := intent.NewDetectorFromConfig(cfg.IntentRulesFile)
	if err != nil {
		return nil, fmt.Errorf("intent rules init failed: %w", err)
	}
	return app.OpenStore(ctx, cfg, detector, logger, nil)
}

func printHistory(out io.Writer, turns []memory.Turn, owner, assistantName string, st chatStyles) {
	if len(turns) == 0 {
		fmt.Fprintln(out, st.Muted.Render("(no conversation yet)"))
		return
	}
	if owner == "" {
		owner = "User"
	}
	for _, t := range turns {
		at := time.Unix(0, int64(t.Timestamp*float64(time.Second))).Format("2006-01-02 15:04:05")
		label := st.User.Render(owner + ":")
		if t.Speaker == memory.SpeakerAssistant {
			label = st.Assistant.Render(assistantName + ":")
		}
		fmt.Fprintf(out, "%s %s %s\n", st.Muted.Render("["+at+"]"), label, t.Text)
	}
}
