package services

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/logger"
	"github.com/custodia-labs/athena/internal/semantic"
)

// snippetSeparator joins formatted snippets.
const snippetSeparator = "\n\n"

// filenameCue detects queries that name a document.
var filenameCue = regexp.MustCompile(`\b(arquivos?|documentos?)\b|\.(pdf|docx|txt)\b|\b[a-z]{2,5}[-_]?\d{2,}\b`)

// filenameNoise are tokens that never identify a particular document.
var filenameNoise = map[string]struct{}{
	"pdf": {}, "docx": {}, "doc": {}, "txt": {},
	"arquivo": {}, "arquivos": {}, "documento": {}, "documentos": {},
}

// Assemble retrieves candidates for the query and formats a bounded,
// deduplicated context with citations. No candidates yields an empty context.
func (s *RetrievalService) Assemble(
	ctx context.Context,
	query string,
	opts domain.AssembleOptions,
) (*domain.AssembledContext, error) {
	start := time.Now()
	opts = s.withAssembleDefaults(opts)

	logger.Section("Context Assembly")
	logger.Debug("Query: %q mode=%s k=%d max_chars=%d max_per_source=%d",
		query, opts.Mode, opts.K, opts.MaxChars, opts.MaxPerSource)

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if s.store.Count() == 0 {
		logger.Debug("Store is empty, returning no context")
		return &domain.AssembledContext{}, nil
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	breadth := candidateBreadth(opts.K, opts.Mode)
	candidates := s.Rerank(query, s.store.Search(vec, breadth))
	if len(candidates) == 0 {
		return &domain.AssembledContext{}, nil
	}

	maxPerSource := opts.MaxPerSource
	preferred := s.preferredSources(query, candidates)
	if len(preferred) > 0 {
		logger.Debug("Preferred sources: %v", preferred)
		switch opts.Mode {
		case domain.ModeSummary:
			candidates = s.Rerank(query, Score(vec, s.store.ChunksForSources(preferred...)))
			maxPerSource = max(maxPerSource, s.cfg.SummaryMinPerSource)
		default:
			filtered := filterSources(candidates, preferred)
			if len(filtered) == 0 {
				filtered = topK(s.Rerank(query, Score(vec, s.store.ChunksForSources(preferred...))), breadth)
			}
			candidates = filtered
		}
	}

	ordered := candidates
	maxSnippets := opts.K
	if opts.Mode == domain.ModeSummary {
		ordered = s.diversify(candidates)
		maxSnippets = 0
	}

	result := formatContext(ordered, opts.MaxChars, maxPerSource, maxSnippets)
	result.PreferredSources = preferred
	logger.Debug("Assembled %d snippets, %d citations, %d chars",
		result.Snippets, len(result.Citations), utf8.RuneCountInString(result.Text))
	s.metrics.ObserveRetrieval(string(opts.Mode), time.Since(start), result.Snippets)
	return result, nil
}

func (s *RetrievalService) withAssembleDefaults(opts domain.AssembleOptions) domain.AssembleOptions {
	if opts.K <= 0 {
		opts.K = s.cfg.K
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = s.cfg.MaxChars
	}
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = s.cfg.MaxPerSource
	}
	if !opts.Mode.IsValid() {
		opts.Mode = domain.ModeQA
	}
	return opts
}

// candidateBreadth is how many chunks are pulled before reranking.
// Summaries need broader coverage than the few closest chunks.
func candidateBreadth(k int, mode domain.Mode) int {
	if mode == domain.ModeSummary {
		return max(k*10, 40)
	}
	return max(k*6, 12)
}

// preferredSources narrows retrieval to documents the query names, or to a
// single source whose top score clearly dominates.
func (s *RetrievalService) preferredSources(query string, candidates []domain.Match) []string {
	if filenameCue.MatchString(semantic.Fold(query)) {
		if named := s.namedSources(query, candidates); len(named) > 0 {
			return named
		}
	}
	return s.dominantSource(candidates)
}

// namedSources returns the sources sharing the most filename tokens with the
// query, in candidate rank order, capped at MaxPreferredSources.
func (s *RetrievalService) namedSources(query string, candidates []domain.Match) []string {
	queryTokens := filenameTokens(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var order []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if _, ok := seen[c.Source]; !ok {
			seen[c.Source] = struct{}{}
			order = append(order, c.Source)
		}
	}
	for _, src := range s.store.Sources() {
		if _, ok := seen[src]; !ok {
			seen[src] = struct{}{}
			order = append(order, src)
		}
	}

	best := 0
	counts := make(map[string]int, len(order))
	for _, src := range order {
		n := 0
		for tok := range filenameTokens(src) {
			if _, ok := queryTokens[tok]; ok {
				n++
			}
		}
		counts[src] = n
		best = max(best, n)
	}
	if best == 0 {
		return nil
	}

	var out []string
	for _, src := range order {
		if counts[src] == best {
			out = append(out, src)
			if len(out) == s.cfg.MaxPreferredSources {
				break
			}
		}
	}
	return out
}

// dominantSource returns the top candidate's source when its score passes
// the threshold and leads every other source by the configured margin.
func (s *RetrievalService) dominantSource(candidates []domain.Match) []string {
	if len(candidates) == 0 {
		return nil
	}
	top := candidates[0]
	if top.Score < s.cfg.DominanceThreshold {
		return nil
	}
	runnerUp := 0.0
	for _, c := range candidates[1:] {
		if c.Source != top.Source {
			runnerUp = c.Score
			break
		}
	}
	if top.Score-runnerUp < s.cfg.DominanceMargin {
		return nil
	}
	return []string{top.Source}
}

// filenameTokens returns the content tokens of s as a set.
func filenameTokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range semantic.Tokens(s) {
		if _, noise := filenameNoise[tok]; noise || semantic.IsStopword(tok) {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func filterSources(matches []domain.Match, sources []string) []domain.Match {
	var out []domain.Match
	for _, m := range matches {
		if slices.Contains(sources, m.Source) {
			out = append(out, m)
		}
	}
	return out
}

type pageKey struct {
	source string
	page   int
}

// diversify keeps the best chunk of each page: every page 1, then up to
// SummaryExtraPages more pages by score, in reading order. The remaining
// chunks follow in reading order as filler. candidates must be sorted by
// descending score.
func (s *RetrievalService) diversify(candidates []domain.Match) []domain.Match {
	bestOfPage := make(map[pageKey]int)
	var pages []pageKey
	for i, c := range candidates {
		key := pageKey{c.Source, c.Page}
		if _, ok := bestOfPage[key]; !ok {
			bestOfPage[key] = i
			pages = append(pages, key)
		}
	}

	selected := make(map[int]struct{})
	for _, key := range pages {
		if key.page == 1 {
			selected[bestOfPage[key]] = struct{}{}
		}
	}
	extra := 0
	for _, key := range pages {
		if extra >= s.cfg.SummaryExtraPages {
			break
		}
		if key.page != 1 {
			selected[bestOfPage[key]] = struct{}{}
			extra++
		}
	}

	picked := make([]domain.Match, 0, len(selected))
	filler := make([]domain.Match, 0, len(candidates)-len(selected))
	for i, c := range candidates {
		if _, ok := selected[i]; ok {
			picked = append(picked, c)
		} else {
			filler = append(filler, c)
		}
	}
	sortReadingOrder(picked)
	sortReadingOrder(filler)
	return append(picked, filler...)
}

func sortReadingOrder(ms []domain.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Order < b.Order
	})
}

// formatContext writes snippets until maxChars is reached. The snippet that
// crosses the limit is kept whole. maxSnippets of zero means unbounded.
func formatContext(ordered []domain.Match, maxChars, maxPerSource, maxSnippets int) *domain.AssembledContext {
	var b strings.Builder
	result := &domain.AssembledContext{Citations: []domain.Citation{}}
	length := 0
	seenText := make(map[string]struct{})
	perSource := make(map[string]int)
	cited := make(map[pageKey]int)

	for _, m := range ordered {
		if length >= maxChars || (maxSnippets > 0 && result.Snippets >= maxSnippets) {
			break
		}
		norm := semantic.NormalizeSpace(m.Text)
		if _, dup := seenText[norm]; dup {
			continue
		}
		if perSource[m.Source] >= maxPerSource {
			continue
		}
		seenText[norm] = struct{}{}
		perSource[m.Source]++

		if result.Snippets > 0 {
			b.WriteString(snippetSeparator)
			length += len(snippetSeparator)
		}
		snippet := snippetHeader(m) + "\n" + m.Text
		b.WriteString(snippet)
		length += utf8.RuneCountInString(snippet)
		result.Snippets++

		key := pageKey{m.Source, m.Page}
		if i, ok := cited[key]; ok {
			if m.Score > result.Citations[i].Score {
				result.Citations[i].Score = m.Score
			}
			continue
		}
		cited[key] = len(result.Citations)
		result.Citations = append(result.Citations, domain.Citation{Source: m.Source, Page: m.Page, Score: m.Score})
	}

	result.Text = b.String()
	return result
}

func snippetHeader(m domain.Match) string {
	h := fmt.Sprintf("Document: %s | Page: %d", m.Source, m.Page)
	for _, f := range []struct{ name, value string }{
		{"Category", m.Category},
		{"Role", m.Role},
		{"Topic", m.Topic},
	} {
		if f.value != "" && f.value != domain.Unknown {
			h += " | " + f.name + ": " + f.value
		}
	}
	return h
}
