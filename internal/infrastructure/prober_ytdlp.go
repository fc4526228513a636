package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// YTDLPProber implements the probe capability with a metadata-only
// yt-dlp invocation: flat extraction, no download, short timeout. A
// probe is single-shot; any failure marks the source unreachable and
// nothing propagates to the caller.
type YTDLPProber struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewYTDLPProber creates a prober using the given yt-dlp binary.
func NewYTDLPProber(binary string, timeout time.Duration, log *zap.Logger) *YTDLPProber {
	return &YTDLPProber{
		binary:  binary,
		timeout: timeout,
		logger:  log,
	}
}

// Probe checks whether the source URL is currently extractable and sets
// the source's health accordingly.
func (p *YTDLPProber) Probe(ctx context.Context, source *domain.Source) domain.Health {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"--simulate",
		"--quiet",
		"--no-warnings",
		"--flat-playlist",
		"--socket-timeout", fmt.Sprintf("%d", int(p.timeout.Seconds())),
		source.URL,
	}

	if err := exec.CommandContext(probeCtx, p.binary, args...).Run(); err != nil {
		p.logger.Debug("Probe failed",
			zap.String("url", source.URL),
			zap.Error(err))
		source.MarkUnreachable()
		return domain.HealthUnreachable
	}

	source.MarkReachable()
	return domain.HealthReachable
}
