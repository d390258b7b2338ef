// Package report composes the navigable report: it resolves a navigation
// selection against the static page map and renders every implied panel in
// isolation, so one missing or corrupt artifact never blanks a page.
package report

import (
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/chart"
	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/storage/models"
	"github.com/afi-report/backend/pkg/logger"
)

type Options struct {
	Scatter       chart.ScatterSpec
	ScoreColumn   string
	RankingTop    int
	DefaultHeight int
}

type NavEntry struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type TabLink struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type RenderedSection struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Layout    Layout    `json:"layout"`
	Weights   []int     `json:"weights,omitempty"`
	Panels    []Panel   `json:"panels,omitempty"`
	Tabs      []TabLink `json:"tabs,omitempty"`
	TabPanels []Panel   `json:"tab_panels,omitempty"`
}

type RenderedPage struct {
	RenderID   string            `json:"render_id"`
	State      NavigationState   `json:"state"`
	Slug       string            `json:"slug"`
	Label      string            `json:"label"`
	Title      string            `json:"title"`
	Nav        []NavEntry        `json:"nav"`
	Sections   []RenderedSection `json:"sections"`
	RenderedAt time.Time         `json:"rendered_at"`
}

// Failures lists the panels that rendered a warning or an error.
func (p *RenderedPage) Failures() []Panel {
	var out []Panel
	for _, s := range p.Sections {
		for _, group := range [][]Panel{s.Panels, s.TabPanels} {
			for _, panel := range group {
				if panel.Failure != nil {
					out = append(out, panel)
				}
			}
		}
	}
	return out
}

// Composer is read-only after construction and safe for concurrent use.
type Composer struct {
	table     *dataset.Table
	artifacts *ArtifactStore
	nav       *Navigation
	opts      Options
}

// NewComposer takes the reconciled table explicitly; it never reads a global.
func NewComposer(table *dataset.Table, artifacts *ArtifactStore, nav *Navigation, opts Options) (*Composer, error) {
	if err := nav.Validate(); err != nil {
		return nil, fmt.Errorf("invalid navigation: %w", err)
	}
	if opts.ScoreColumn == "" {
		opts.ScoreColumn = models.ColAFI
	}
	if opts.RankingTop <= 0 {
		opts.RankingTop = 15
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 600
	}
	return &Composer{table: table, artifacts: artifacts, nav: nav, opts: opts}, nil
}

func (c *Composer) Navigation() *Navigation {
	return c.nav
}

// Compose renders the page selected by state. Panels render top to bottom;
// only the active tab of each tab group is rendered.
func (c *Composer) Compose(state NavigationState) (*RenderedPage, error) {
	page := c.nav.Default()
	if state.Page != "" {
		var err error
		if page, err = c.nav.Find(state.Page); err != nil {
			return nil, err
		}
	}

	out := &RenderedPage{
		RenderID:   uuid.New().String(),
		State:      NavigationState{Page: page.Slug, Tab: state.Tab},
		Slug:       page.Slug,
		Label:      page.Label,
		Title:      page.Title,
		RenderedAt: time.Now(),
	}
	for _, p := range c.nav.Pages {
		out.Nav = append(out.Nav, NavEntry{Slug: p.Slug, Label: p.Label, Active: p.Slug == page.Slug})
	}

	for _, section := range page.Sections {
		rs := RenderedSection{
			ID:      section.ID,
			Title:   section.Title,
			Layout:  section.Layout,
			Weights: section.Weights,
		}
		for i, spec := range section.Panels {
			rs.Panels = append(rs.Panels, c.render(fmt.Sprintf("%s/%s/%d", page.Slug, section.ID, i), spec))
		}

		if len(section.Tabs) > 0 {
			active := activeTab(section.Tabs, state.Tab)
			for _, tab := range section.Tabs {
				rs.Tabs = append(rs.Tabs, TabLink{Slug: tab.Slug, Label: tab.Label, Active: tab.Slug == active.Slug})
			}
			for i, spec := range active.Panels {
				rs.TabPanels = append(rs.TabPanels, c.render(fmt.Sprintf("%s/%s/%s/%d", page.Slug, section.ID, active.Slug, i), spec))
			}
		}
		out.Sections = append(out.Sections, rs)
	}

	logger.Debug("Page composed",
		zap.String("render_id", out.RenderID),
		zap.String("page", page.Slug),
		zap.String("tab", state.Tab),
		zap.Int("failures", len(out.Failures())),
	)
	return out, nil
}

func activeTab(tabs []Tab, slug string) Tab {
	for _, t := range tabs {
		if t.Slug == slug {
			return t
		}
	}
	return tabs[0]
}

func (c *Composer) render(id string, spec PanelSpec) Panel {
	p := RenderSafely(id, spec.Kind, c.producer(spec))
	p.Subheader = spec.Subheader
	return p
}

// producer dispatches on the panel kind. Every kind goes through the same
// RenderSafely wrapper.
func (c *Composer) producer(spec PanelSpec) Producer {
	height := spec.Height
	if height <= 0 {
		height = c.opts.DefaultHeight
	}

	switch spec.Kind {
	case KindArtifact:
		return c.artifacts.artifactProducer(spec.Artifact, height)
	case KindScatter:
		return c.scatter
	case KindRanking:
		return func() (Content, error) { return c.ranking(height) }
	case KindNote:
		return func() (Content, error) {
			return Content{HTML: template.HTML(`<div class="alert alert-info">` + template.HTMLEscapeString(spec.Text) + `</div>`)}, nil
		}
	default:
		return func() (Content, error) {
			return Content{}, fmt.Errorf("unknown panel kind %q", spec.Kind)
		}
	}
}

func (c *Composer) scatter() (Content, error) {
	s, err := chart.BuildScatter(c.table, c.opts.Scatter)
	if err != nil {
		return Content{}, err
	}
	svg, err := s.SVG()
	if err != nil {
		return Content{}, err
	}
	caption := ""
	if s.Skipped > 0 {
		caption = fmt.Sprintf("%d districts without a positive volume are not shown on the log axis", s.Skipped)
	}
	return Content{HTML: svg, Caption: caption}, nil
}

func (c *Composer) ranking(height int) (Content, error) {
	top, err := TopDistricts(c.table, c.opts.ScoreColumn, c.opts.RankingTop)
	if err != nil {
		return Content{}, err
	}
	html, err := renderTable(top, height)
	if err != nil {
		return Content{}, err
	}
	return Content{HTML: html}, nil
}
