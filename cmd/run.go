package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubbub-im/hubbub/internal/bus"
	"github.com/hubbub-im/hubbub/internal/config"
)

var (
	runPreload  bool
	runAmbient  time.Duration
	runNoPrompt bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the workspace simulation interactively",
	Long: "Seeds channel history, schedules ambient traffic, and reads your\n" +
		"messages from stdin. Lines starting with '/' are commands:\n" +
		"  /switch <target>   change the active view (#channel or @user)\n" +
		"  /view              print the active view's messages\n" +
		"  /unread            print unread flags\n" +
		"  /quit              exit",
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runPreload, "preload", true, "seed channels with synthetic history")
	runCmd.Flags().DurationVar(&runAmbient, "ambient", 30*time.Second, "reschedule ambient traffic at this interval (0 = one round only)")
	runCmd.Flags().BoolVar(&runNoPrompt, "no-input", false, "run without reading stdin")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Print deliveries as they happen, with an extra notice line for DMs
	// addressed to the session user.
	a.feed.SubscribeAll(func(evt bus.Event) {
		fmt.Printf("[%s] %s <%s> %s\n",
			evt.Timestamp.Format("15:04:05"), evt.Target, evt.From, evt.Text)
	})
	a.feed.Subscribe("@"+a.sim.Session().User, func(evt bus.Event) {
		fmt.Printf("*** new message from @%s\n", evt.From)
	})
	go a.feed.Dispatch(ctx)

	if runPreload {
		if err := a.sim.Seed(); err != nil {
			return err
		}
	}
	a.sim.ScheduleAmbient()
	if runAmbient > 0 {
		go func() {
			ticker := time.NewTicker(runAmbient)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.sim.ScheduleAmbient()
				}
			}
		}()
	}

	session := a.sim.Session()
	fmt.Printf("logged in as @%s, viewing %s\n", session.User, a.tracker.Active())

	if runNoPrompt {
		<-ctx.Done()
		return nil
	}
	return inputLoop(ctx, a)
}

func inputLoop(ctx context.Context, a *app) error {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := handleLine(a, line); done {
				return nil
			}
		}
	}
}

// handleLine processes one stdin line. Returns true on /quit.
func handleLine(a *app, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		if err := a.sim.Submit(line); err != nil {
			fmt.Printf("send failed: %v\n", err)
		}
		return false
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/switch":
		if len(fields) != 2 {
			fmt.Println("usage: /switch <#channel|@user>")
			return false
		}
		a.sim.SwitchView(fields[1])
		fmt.Printf("now viewing %s\n", fields[1])
	case "/view":
		for _, m := range a.sim.ActiveMessages() {
			fmt.Printf("[%s] <%s> %s\n",
				m.Timestamp.Format("15:04:05"), m.From.Name, m.Text)
		}
	case "/unread":
		for target, flag := range a.tracker.Snapshot() {
			if flag {
				fmt.Println(target)
			}
		}
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}
