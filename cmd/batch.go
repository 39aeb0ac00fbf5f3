package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kb-labs/plugins/internal/installer"
	"github.com/kb-labs/plugins/internal/logger"
	"github.com/kb-labs/plugins/internal/manifest"
	"github.com/kb-labs/plugins/internal/naming"
	"github.com/kb-labs/plugins/internal/source"
)

// userErrors are failures caused by the input rather than by a bug; they
// are reported in one line.
var userErrors = []error{
	source.ErrResolutionFailed,
	manifest.ErrManifestMissing,
	manifest.ErrManifestInvalid,
	naming.ErrInvalidName,
	installer.ErrBuildFailed,
	installer.ErrBuildOutputMissing,
	installer.ErrNonCanonicalEntryName,
	installer.ErrInstallIO,
}

func isUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// describeError renders err for the terminal. Unexpected errors get the
// whole wrap chain, one cause per line.
func describeError(err error) string {
	if isUserError(err) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString("internal error: " + err.Error())
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(&b, "\n      caused by (%T): %v", cause, cause)
	}
	return b.String()
}

// runEach applies op to every id in order. A failing id is reported and
// counted; the loop always continues.
func runEach(out io.Writer, log *logger.Logger, ids []string, op func(id string) error) error {
	failed := 0
	for _, id := range ids {
		if err := op(id); err != nil {
			failed++
			log.Printf("%s failed: %v", id, err)
			fmt.Fprintf(out, "  %s %s: %s\n", badStyle.Render("✗"), id, describeError(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d failed", failed, len(ids))
	}
	return nil
}

// runBatch is runEach with a shared temp workspace that is removed when the
// batch ends. Workspace failures abort the batch.
func runBatch(out io.Writer, log *logger.Logger, ids []string, op func(ws *installer.Workspace, id string) error) (err error) {
	ws, err := installer.NewWorkspace()
	if err != nil {
		return err
	}
	log.Printf("workspace %s", ws.Dir())
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return runEach(out, log, ids, func(id string) error {
		return op(ws, id)
	})
}
