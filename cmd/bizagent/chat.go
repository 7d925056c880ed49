package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bharatbiz/bizagent/internal/application/orchestrator"
	"github.com/bharatbiz/bizagent/internal/container"
	"github.com/bharatbiz/bizagent/internal/infrastructure/speech"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive shop conversation",
	Long: `Start an interactive conversation with the shop agent. Each line you type is
classified and recorded: bills become draft invoices, payments settle pending
invoices, reminders are queued and questions are answered from the records.

Commands inside the session:
  /confirm   finalize the current draft invoice
  /discard   drop the current draft invoice
  /voice     toggle spoken replies
  /history   print the transcript
  /quit      leave the session`,
	Example: `  # Chat with the default configuration
  bizagent chat

  # Keep records in sqlite and print logs
  BIZAGENT_DB_DRIVER=sqlite bizagent chat --verbose`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("mute", false, "start with spoken replies turned off")
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := startApp(cmd, container.WithSpeaker(speech.NewWriterSpeaker(out, "🔊 ")))
	if err != nil {
		return err
	}
	defer a.Close()

	conv := a.container.NewConversation()
	if mute, _ := cmd.Flags().GetBool("mute"); mute {
		conv.SetVoice(false)
	}

	session := &chatSession{
		orchestrator: a.container.Orchestrator(),
		conv:         conv,
		out:          out,
	}
	return session.run(cmd.Context(), cmd.InOrStdin())
}

// chatSession is a line-oriented front end over one conversation
type chatSession struct {
	orchestrator *orchestrator.Orchestrator
	conv         *orchestrator.Conversation
	out          io.Writer
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	for _, msg := range s.conv.Transcript() {
		s.printf("agent> %s\n", msg.Text)
	}

	lines, readErr := readLines(in)
	prompt := interactive(in)
	for {
		if prompt {
			s.printf("you> ")
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			s.printf("\n")
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}

		s.show(s.orchestrator.HandleMessage(ctx, s.conv, line))
	}

	if err := <-readErr; err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// readLines scans in on its own goroutine so an interrupt is not stuck
// behind a blocking read. lines is closed at end of input.
func readLines(in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// command handles a slash command and reports whether the session should end
func (s *chatSession) command(ctx context.Context, line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		s.printf("Bye!\n")
		return true
	case "/confirm":
		s.show(s.orchestrator.Confirm(ctx, s.conv))
	case "/discard":
		s.show(s.orchestrator.Discard(ctx, s.conv))
	case "/voice":
		s.conv.SetVoice(!s.conv.VoiceEnabled())
		state := "off"
		if s.conv.VoiceEnabled() {
			state = "on"
		}
		s.printf("Voice output %s.\n", state)
	case "/history":
		for _, msg := range s.conv.Transcript() {
			s.printf("[%s] %s: %s\n", msg.At.Format("15:04"), msg.Role, msg.Text)
		}
	default:
		s.printf("Unknown command %s. Try /confirm, /discard, /voice, /history or /quit.\n", line)
	}
	return false
}

func (s *chatSession) show(reply *orchestrator.Reply) {
	if reply == nil {
		return
	}
	s.printf("agent> %s\n", reply.Message)
	if reply.Draft != nil {
		s.printf("       (/confirm to save invoice %s, /discard to drop it)\n", reply.Draft.ID)
	}
}

func (s *chatSession) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// interactive reports whether in is a terminal, so prompts are not echoed
// into piped output
func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
