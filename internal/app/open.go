package app

import (
	"context"
	"fmt"

	"github.com/relabs-tech/inertial_replay/internal/config"
	"github.com/relabs-tech/inertial_replay/internal/link"
	"github.com/relabs-tech/inertial_replay/internal/source"
)

// OpenSource resolves designator (or cfg.DefaultInput when empty) to a
// source using the configured serial driver. A live source keeps its reader
// goroutine until ctx is done.
func OpenSource(ctx context.Context, cfg *config.Config, designator string) (source.Source, error) {
	if designator == "" {
		designator = cfg.DefaultInput
	}

	opener, err := link.NewOpener(cfg.SerialDriver)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(ctx, designator, opener)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", designator, err)
	}
	return src, nil
}
