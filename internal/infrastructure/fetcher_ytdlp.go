package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/domain"
	"github.com/wlfogle/mediafetch/pkg/logger"
)

// yt-dlp progress lines look like "[download]  42.7% of 12.34MiB ...".
var progressRe = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// YTDLPFetcher implements the extraction capability by shelling out to
// yt-dlp. Each call is one attempt; retry policy belongs to the caller,
// so yt-dlp's own retry count is pinned by the options.
type YTDLPFetcher struct {
	binary   string
	fetchLog *logger.FetchLog
	logger   *zap.Logger
}

// NewYTDLPFetcher creates a fetcher using the given yt-dlp binary.
// fetchLog may be nil to skip the append-only attempt log.
func NewYTDLPFetcher(binary string, fetchLog *logger.FetchLog, log *zap.Logger) *YTDLPFetcher {
	return &YTDLPFetcher{
		binary:   binary,
		fetchLog: fetchLog,
		logger:   log,
	}
}

// Fetch runs yt-dlp for url with the given options, streaming progress
// percentages to the callback. Cancellation of ctx kills the process.
func (f *YTDLPFetcher) Fetch(ctx context.Context, url string, opts domain.FetchOptions, progress domain.ProgressFunc) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if progress == nil {
		progress = func(float64) {}
	}

	args := []string{
		"--newline",
		"--no-playlist",
		"-f", opts.Format,
		"-o", opts.OutputTemplate,
		"--socket-timeout", strconv.Itoa(opts.TimeoutSeconds),
		"--retries", strconv.Itoa(opts.Retries),
		url,
	}

	var logFile *os.File
	if f.fetchLog != nil {
		file, err := f.fetchLog.Open()
		if err != nil {
			// The attempt log is advisory; losing it must not fail the fetch.
			f.logger.Warn("Failed to open fetch log", zap.Error(err))
		} else {
			logFile = file
			defer file.Close()
			f.fetchLog.WriteHeader(file, url, commandLine(f.binary, args...))
		}
	}

	cmd := exec.CommandContext(ctx, f.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attach stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", f.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if logFile != nil {
			fmt.Fprintln(logFile, line)
		}
		if m := progressRe.FindStringSubmatch(line); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				progress(pct)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		if logFile != nil {
			f.fetchLog.WriteFooter(logFile, false, fmt.Sprintf("%s failed: %v", f.binary, err))
		}
		return fmt.Errorf("%s failed: %w", f.binary, err)
	}

	if logFile != nil {
		f.fetchLog.WriteFooter(logFile, true, "fetch completed")
	}
	progress(100)
	return nil
}

// commandLine renders a shell-safe command for the attempt log. Display
// only; exec.Command passes args directly without shell interpretation.
func commandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(binary))
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"$`\\!*?[](){}|;<>&~#%") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
