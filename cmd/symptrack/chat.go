package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"symptrack/internal/chat"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive symptom chat",
		Long: `Describe how you feel one message at a time.  Each answer is added to the
transcript and to the history list.

Commands:
  /history   show past entries, newest first
  /summary   show the summary of the latest analysis
  /quit      leave the chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(cmd *cobra.Command, in io.Reader, out io.Writer) error {
	p := chat.NewPresenter(newClient(), chat.NotifierFunc(func(title, body string) {
		printNotice(out, title, body)
	}))

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + chat.AnalyzingPlaceholder
	p.Observer = func(st chat.State) {
		if st.Loading {
			s.Start()
		} else {
			s.Stop()
		}
	}

	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(out)
	cyan.Fprintln(out, "SympTrack")
	fmt.Fprintln(out, color.HiBlackString("Type /history, /summary or /quit. Not a diagnosis."))
	fmt.Fprintln(out)
	chat.RenderTranscript(out, p.State())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, cyan.Sprint("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/history":
			chat.RenderHistory(out, time.Now(), p.State().History)
			continue
		case "/summary":
			st := p.State()
			if st.Last == nil || len(st.History) == 0 {
				fmt.Fprintln(out, color.HiBlackString("Nothing to summarize yet."))
				continue
			}
			chat.RenderSummary(out, chat.Summarize(st.History[0], *st.Last))
			continue
		}

		before := len(p.State().Transcript)
		if !p.Submit(cmd.Context(), line) {
			continue
		}
		st := p.State()
		// Print only the assistant reply; the user line is already on screen.
		if len(st.Transcript) > before+1 {
			chat.RenderTranscript(out, chat.State{Transcript: st.Transcript[before+1:]})
			fmt.Fprintf(out, "     %s %s\n", chat.RiskBadge(st.History[0].Risk), st.History[0].Disease)
		}
	}
}
