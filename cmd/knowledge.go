package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/internal/faq"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
	"github.com/nextlevelbuilder/faqclaw/internal/store/open"
)

// openCatalog opens the configured store and loads a catalog over it. The
// caller closes the returned store. With requireLoad unset, a failed first
// load is logged and the catalog starts empty.
func openCatalog(ctx context.Context, cfg *config.Config, requireLoad bool) (*faq.Catalog, store.FAQStore, error) {
	s, err := open.Store(ctx, cfg.Knowledge.StoreConfig())
	if err != nil {
		return nil, nil, err
	}
	catalog := faq.NewCatalog(s)
	if cfg.Knowledge.Filter != "" {
		if err := catalog.SetFilter(cfg.Knowledge.Filter); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("knowledge.filter: %w", err)
		}
	}
	if err := catalog.Reload(ctx); err != nil {
		if requireLoad {
			s.Close()
			return nil, nil, err
		}
		slog.Error("initial knowledge base load failed", "error", err)
	}
	return catalog, s, nil
}

// responderOptions maps config to responder options.
func responderOptions(cfg *config.Config) chat.Options {
	return chat.Options{
		Match:           cfg.Match.Options(),
		Suggestions:     cfg.Match.Suggestions,
		SuggestMinScore: cfg.Match.SuggestMinScore,
		Replies: chat.Replies{
			Empty:            cfg.Replies.Empty,
			NoAnswer:         cfg.Replies.NoAnswer,
			Fallback:         cfg.Replies.Fallback,
			Error:            cfg.Replies.Error,
			SuggestionHeader: cfg.Replies.SuggestionHeader,
		},
	}
}

// openResponder loads the catalog and builds a responder over it.
func openResponder(ctx context.Context, cfg *config.Config, requireLoad bool) (*chat.Responder, *faq.Catalog, store.FAQStore, error) {
	catalog, s, err := openCatalog(ctx, cfg, requireLoad)
	if err != nil {
		return nil, nil, nil, err
	}
	responder, err := chat.NewResponder(catalog, responderOptions(cfg))
	if err != nil {
		s.Close()
		return nil, nil, nil, err
	}
	return responder, catalog, s, nil
}
