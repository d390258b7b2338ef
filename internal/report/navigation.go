package report

import (
	"errors"
	"fmt"
)

var ErrUnknownPage = errors.New("unknown page")

type PanelKind string

const (
	KindArtifact PanelKind = "artifact"
	KindScatter  PanelKind = "scatter"
	KindRanking  PanelKind = "ranking"
	KindNote     PanelKind = "note"
)

type Layout string

const (
	LayoutStack   Layout = "stack"
	LayoutColumns Layout = "columns"
)

// PanelSpec declares one renderable unit. Artifact panels name an externally
// produced file, scatter and ranking panels are built from the scored table.
type PanelSpec struct {
	Kind      PanelKind `json:"kind"`
	Artifact  string    `json:"artifact,omitempty"`
	Height    int       `json:"height,omitempty"`
	Subheader string    `json:"subheader,omitempty"`
	Text      string    `json:"text,omitempty"`
}

type Tab struct {
	Slug   string      `json:"slug"`
	Label  string      `json:"label"`
	Panels []PanelSpec `json:"panels"`
}

// Section holds either direct panels, tabs, or both (panels first).
type Section struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Layout  Layout      `json:"layout"`
	Weights []int       `json:"weights,omitempty"`
	Panels  []PanelSpec `json:"panels,omitempty"`
	Tabs    []Tab       `json:"tabs,omitempty"`
}

type Page struct {
	Slug     string    `json:"slug"`
	Label    string    `json:"label"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// NavigationState is the user's current selection. Tab selects the active
// tab in every tab group of the page that has a tab with that slug; other
// groups show their first tab.
type NavigationState struct {
	Page string `json:"page"`
	Tab  string `json:"tab,omitempty"`
}

// Navigation is the static page map. Adding a page or tab is a data change.
type Navigation struct {
	Pages []Page `json:"pages"`
}

func (n *Navigation) Find(slug string) (Page, error) {
	for _, p := range n.Pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
}

// Default returns the first page, used when no page is selected.
func (n *Navigation) Default() Page {
	return n.Pages[0]
}

// Validate checks that slugs are unique and every panel is complete.
func (n *Navigation) Validate() error {
	if len(n.Pages) == 0 {
		return errors.New("navigation has no pages")
	}
	seen := map[string]bool{}
	for _, p := range n.Pages {
		if p.Slug == "" || seen[p.Slug] {
			return fmt.Errorf("page slug %q is empty or repeated", p.Slug)
		}
		seen[p.Slug] = true
		for _, s := range p.Sections {
			for _, spec := range s.Panels {
				if err := spec.validate(); err != nil {
					return fmt.Errorf("page %s section %s: %w", p.Slug, s.ID, err)
				}
			}
			tabs := map[string]bool{}
			for _, t := range s.Tabs {
				if t.Slug == "" || tabs[t.Slug] {
					return fmt.Errorf("page %s section %s: tab slug %q is empty or repeated", p.Slug, s.ID, t.Slug)
				}
				tabs[t.Slug] = true
				for _, spec := range t.Panels {
					if err := spec.validate(); err != nil {
						return fmt.Errorf("page %s tab %s: %w", p.Slug, t.Slug, err)
					}
				}
			}
		}
	}
	return nil
}

func (p PanelSpec) validate() error {
	switch p.Kind {
	case KindArtifact:
		if p.Artifact == "" {
			return errors.New("artifact panel without a name")
		}
	case KindScatter, KindRanking:
	case KindNote:
		if p.Text == "" {
			return errors.New("note panel without text")
		}
	default:
		return fmt.Errorf("unknown panel kind %q", p.Kind)
	}
	return nil
}

func artifact(name string, height int) PanelSpec {
	return PanelSpec{Kind: KindArtifact, Artifact: name, Height: height}
}

func artifactTab(slug, label, name string, height int) Tab {
	return Tab{Slug: slug, Label: label, Panels: []PanelSpec{artifact(name, height)}}
}

// DefaultNavigation is the four page strategic intelligence report.
func DefaultNavigation() *Navigation {
	return &Navigation{Pages: []Page{
		{
			Slug:  "executive-summary",
			Label: "Executive Summary",
			Title: "Strategic Intelligence Executive Dashboard",
			Sections: []Section{{
				ID:     "enrollment-trends",
				Title:  "National Enrollment Trends",
				Layout: LayoutStack,
				Tabs: []Tab{
					artifactTab("demographic-pyramid", "Demographic Pyramid", "age_pyramid.html", 600),
					artifactTab("enrollment-trend", "Enrollment Trend Analysis", "trend_analysis.html", 600),
				},
			}},
		},
		{
			Slug:  "friction-landscape",
			Label: "Friction Landscape",
			Title: "Aadhaar Friction Index (AFI)",
			Sections: []Section{
				{
					ID:      "matrix-rankings",
					Title:   "Strategic Matrix & Rankings",
					Layout:  LayoutColumns,
					Weights: []int{2, 1},
					Panels: []PanelSpec{
						{Kind: KindScatter},
						{Kind: KindRanking, Subheader: "Top Critical Districts", Height: 600},
					},
				},
				{
					ID:     "friction-detail",
					Title:  "Detailed Friction Analysis",
					Layout: LayoutStack,
					Tabs: []Tab{
						artifactTab("top-20-districts", "Top 20 Districts", "top_20_districts_bar.html", 600),
						artifactTab("service-deserts", "Service Deserts (Bubble)", "state_density_bubble.html", 600),
						artifactTab("state-demographics", "State Demographics", "state_demographics_treemap.html", 600),
						artifactTab("weekend-gap", "Weekend Service Gap", "weekend_gap_pie.html", 600),
					},
				},
			},
		},
		{
			Slug:  "demand-forecasting",
			Label: "Demand Forecasting",
			Title: "Predictive Demand Modeling",
			Sections: []Section{
				{
					ID:     "demand-projections",
					Title:  "6-Month Demand Projections",
					Layout: LayoutStack,
					Panels: []PanelSpec{artifact("prophet_forecast.html", 600)},
				},
				{
					ID:     "model-diagnostics",
					Title:  "Model Diagnostics & Breakdowns",
					Layout: LayoutStack,
					Tabs: []Tab{
						artifactTab("state-growth", "State Growth", "future_projection_bar.html", 600),
						artifactTab("seasonality", "Seasonality", "seasonality_heatmap.html", 700),
						artifactTab("predicted-vs-actual", "Predicted vs Actual", "forecast_scatter.html", 600),
						artifactTab("baseline-forecast", "Baseline Forecast (LR)", "forecast_interactive.html", 600),
						artifactTab("forecast-table", "Forecast Data Table", "forecast_data_table.html", 600),
						artifactTab("challenger-model", "Challenger Model", "prophet_forecast_challenger.html", 600),
						artifactTab("components", "Components", "prophet_components.html", 800),
						artifactTab("error-distribution", "Error Dist.", "forecast_error_distribution.html", 600),
						artifactTab("residuals", "Residuals", "forecast_residuals.html", 600),
						artifactTab("rolling-rmse", "Rolling RMSE", "rolling_rmse.html", 600),
					},
				},
			},
		},
		{
			Slug:  "anomaly-detection",
			Label: "Anomaly & Fraud Detection",
			Title: "Ghost District Detection",
			Sections: []Section{
				{
					ID:      "anomaly-identification",
					Title:   "Anomaly Identification",
					Layout:  LayoutColumns,
					Weights: []int{2, 1},
					Panels: []PanelSpec{
						artifact("ghost_districts_scatter.html", 600),
						{Kind: KindArtifact, Artifact: "top_anomalies_bar.html", Height: 600, Subheader: "Top Anomalous Districts"},
					},
				},
				{
					ID:     "fraud-patterns",
					Title:  "Fraud Pattern Analysis",
					Layout: LayoutStack,
					Tabs: []Tab{
						{Slug: "3d-anomaly-view", Label: "3D Anomaly View", Panels: []PanelSpec{
							{Kind: KindNote, Text: "Interactive 3D Visualization of Anomaly Clusters"},
							artifact("3d_anomaly_view.html", 700),
						}},
						artifactTab("anomalies-vs-time", "Anomalies vs Time", "anomaly_magnitude_time.html", 600),
						artifactTab("day-of-week", "Day of Week Analysis", "day_of_week_analysis.html", 600),
						artifactTab("feature-importance", "XGBoost Feature Imp.", "xgboost_feature_importance.html", 600),
						artifactTab("score-distribution", "Score Distribution", "anomaly_score_distribution.html", 600),
						artifactTab("raw-anomaly-scatter", "Raw Anomaly Scatter", "anomaly_scatter.html", 600),
					},
				},
			},
		},
	}}
}
