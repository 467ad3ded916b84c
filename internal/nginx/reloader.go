package nginx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/util"
)

// ErrReload means nginx did not accept the reload signal.
var ErrReload = errors.New("reload nginx")

// Reloader makes the web server pick up a new whitelist.
type Reloader interface {
	Reload(ctx context.Context) error
}

// BinaryReloader runs `<bin> -s reload` directly, without a shell.
type BinaryReloader struct {
	bin     string
	timeout time.Duration
	log     *logrus.Entry
}

func NewBinaryReloader(bin string, timeout time.Duration, log *logrus.Entry) *BinaryReloader {
	return &BinaryReloader{bin: bin, timeout: timeout, log: log}
}

// Args returns the arguments passed to the nginx binary.
func (r *BinaryReloader) Args() []string {
	return []string{"-s", "reload"}
}

func (r *BinaryReloader) Reload(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.log.WithField("bin", r.bin).Debug("Reloading nginx")
	cmd := exec.CommandContext(ctx, r.bin, r.Args()...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", err, ctx.Err())
		}
		return fmt.Errorf("%w: %s %v: %v: %s", ErrReload, r.bin, r.Args(), err, util.SanitizeOutput(out))
	}

	r.log.WithField("output", util.SanitizeOutput(out)).Debug("Nginx was reloaded successfully")
	return nil
}
