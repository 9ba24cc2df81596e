package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anttttti/DuneBlend/pkg/blend"
	"github.com/anttttti/DuneBlend/pkg/catalog"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// resolve enriches doc from the configured resource catalog.
func resolve(ctx context.Context, assets core.Fetcher, doc *blend.Document) error {
	data, err := assets.Fetch(ctx, cfg.Resources)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Resources, err)
	}
	c, err := catalog.Parse(data)
	if err != nil {
		return err
	}
	for _, key := range c.Enrich(doc) {
		slog.Warn("item not in catalog", "item", key)
	}
	return nil
}

// serializeAs re-renders doc under the title of the original text.
func serializeAs(text string, doc *blend.Document) string {
	name := blend.Title(text)
	if name == "" {
		name = core.UntitledBlend
	}
	return blend.Serialize(name, doc)
}
