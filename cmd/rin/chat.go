package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/app"
	"github.com/antoniostano/rin/internal/dialogue"
	"github.com/antoniostano/rin/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Rin in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

type chatStyles struct {
	Assistant lipgloss.Style
	User      lipgloss.Style
	Muted     lipgloss.Style
}

func newChatStyles() chatStyles {
	return chatStyles{
		Assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D946EF")).
			Bold(true),
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BC34A")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true),
	}
}

// conversation is what the REPL needs from the orchestrator.
type conversation interface {
	Greet(ctx context.Context) string
	Owner() (string, bool)
	SetOwner(ctx context.Context, name string)
	HandleTurn(ctx context.Context, text string) dialogue.Reply
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	res, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("cleanup failed", zap.Error(err))
		}
	}()

	sess := res.Sessions.Start()
	ended, err := chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), res.Orchestrator, cfg.AssistantName, newChatStyles(), func() {
		_ = res.Sessions.RecordTurn(sess.ID)
	})
	reason := session.ReasonExplicit
	if ended {
		reason = session.ReasonExitPhrase
	}
	_, _ = res.Sessions.End(sess.ID, reason)
	return err
}

// chatLoop reads one utterance per line until an exit phrase or EOF. It
// reports whether the conversation ended with an exit phrase.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, conv conversation, name string, st chatStyles, onTurn func()) (bool, error) {
	scanner := bufio.NewScanner(in)
	say := func(text string) {
		fmt.Fprintln(out, st.Assistant.Render(name+":")+" "+text)
	}
	readLine := func() (string, bool) {
		fmt.Fprint(out, st.User.Render("> "))
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	say(conv.Greet(ctx))
	if _, known := conv.Owner(); !known {
		for {
			line, ok := readLine()
			if !ok {
				return false, scanner.Err()
			}
			if line == "" {
				continue
			}
			conv.SetOwner(ctx, line)
			say(conv.Greet(ctx))
			break
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, nil
		}
		line, ok := readLine()
		if !ok {
			fmt.Fprintln(out)
			fmt.Fprintln(out, st.Muted.Render("(input closed)"))
			return false, scanner.Err()
		}
		if line == "" {
			continue
		}
		if onTurn != nil {
			onTurn()
		}
		reply := conv.HandleTurn(ctx, line)
		say(reply.Text)
		if reply.Ended {
			return true, nil
		}
	}
}
