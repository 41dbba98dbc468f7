package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/pkg/paths"
	"github.com/grovetools/uptask/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// logLine is one line read from a component log file.
type logLine struct {
	Component string
	Text      string
}

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the client logs",
		Long: `Show the log files uptask writes under its state directory, one file per
component and day.

Examples:
  # Follow every component
  uptask logs -f

  # Last 20 lines of the store log from a given day
  uptask logs --component store --date 2025-01-31 -n 20`,
		Args: cobra.NoArgs,
	}
	follow := cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	component := cmd.Flags().String("component", "", "Only show one component (store, channel, gateway, relay, ...)")
	date := cmd.Flags().String("date", "", "Day to show, YYYY-MM-DD (default today)")
	lines := cmd.Flags().IntP("lines", "n", 50, "Number of lines per file to show; 0 shows everything")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger := cli.GetLogger(cmd)
		day := time.Now()
		if *date != "" {
			var err error
			if day, err = time.Parse("2006-01-02", *date); err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		files, err := logFiles(paths.LogsDir(), day, *component)
		if err != nil {
			return err
		}
		if len(files) == 0 && !*follow {
			fmt.Fprintln(cmd.OutOrStdout(), theme.DefaultTheme.Muted.Render("No logs for "+day.Format("2006-01-02")))
			return nil
		}

		jsonOut := cli.GetOptions(cmd).JSONOutput
		emit := func(l logLine) {
			if jsonOut {
				printLogJSON(cmd.OutOrStdout(), l)
			} else {
				printLogText(cmd.OutOrStdout(), l)
			}
		}

		for _, f := range files {
			recent, err := lastLines(f, *lines)
			if err != nil {
				logger.WithError(err).WithField("file", f).Debug("skipping unreadable log")
				continue
			}
			for _, text := range recent {
				emit(logLine{Component: componentOf(f), Text: text})
			}
		}
		if !*follow {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if *component == "" && len(files) == 0 {
			return fmt.Errorf("no log files to follow in %s; pass --component to wait for one", paths.LogsDir())
		}
		if *component != "" && len(files) == 0 {
			files = []string{filepath.Join(paths.LogsDir(), fmt.Sprintf("%s-%s.log", *component, day.Format("2006-01-02")))}
		}

		lineChan := make(chan logLine, 100)
		var wg sync.WaitGroup
		for _, f := range files {
			wg.Add(1)
			go followFile(ctx, f, lineChan, &wg)
		}
		go func() {
			wg.Wait()
			close(lineChan)
		}()
		for l := range lineChan {
			emit(l)
		}
		return nil
	}
	return cmd
}

// logFiles returns the log files of day in dir, optionally only component's.
func logFiles(dir string, day time.Time, component string) ([]string, error) {
	name := "*"
	if component != "" {
		name = component
	}
	files, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("%s-%s.log", name, day.Format("2006-01-02"))))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// componentOf recovers the component from "<component>-YYYY-MM-DD.log".
func componentOf(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".log")
	if len(base) > len("-2006-01-02") {
		return base[:len(base)-len("-2006-01-02")]
	}
	return base
}

// lastLines returns the last n non-empty lines of path, or all of them when n <= 0.
func lastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if text := scanner.Text(); text != "" {
			lines = append(lines, text)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, scanner.Err()
}

// followFile streams lines appended to path from now on until ctx is done.
func followFile(ctx context.Context, path string, out chan<- logLine, wg *sync.WaitGroup) {
	defer wg.Done()

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return
	}
	defer t.Cleanup()

	component := componentOf(path)
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case line, ok := <-t.Lines:
			if !ok {
				return
			}
			if line.Err != nil || line.Text == "" {
				continue
			}
			out <- logLine{Component: component, Text: line.Text}
		}
	}
}

func printLogJSON(w io.Writer, l logLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(l.Text), &logMap); err != nil {
		logMap = map[string]interface{}{"raw_line": l.Text}
	}
	if _, ok := logMap["component"]; !ok {
		logMap["component"] = l.Component
	}
	data, _ := json.Marshal(logMap)
	fmt.Fprintln(w, string(data))
}

// printLogText prints text-formatted lines as written and reformats JSON lines.
func printLogText(w io.Writer, l logLine) {
	t := theme.DefaultTheme
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(l.Text), &logMap); err != nil {
		fmt.Fprintln(w, l.Text)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)

	timeStr := ts
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		timeStr = parsed.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	var keys []string
	for k := range logMap {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), logMap[k]))
	}

	fmt.Fprintf(w, "%s [%s] [%s] %s %s\n",
		timeStr,
		levelStyle.Render(strings.ToUpper(level)),
		t.Accent.Render(l.Component),
		msg,
		strings.Join(fields, " "),
	)
}
