package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"

	"github.com/afi-report/backend/internal/metrics"
)

var (
	ErrArtifactMissing = errors.New("artifact not found")
	ErrArtifactInvalid = errors.New("artifact is not a renderable document")
)

// Artifact is an externally produced visualization, read fresh on each use.
type Artifact struct {
	Name    string
	Title   string
	Content string
}

// ArtifactStore resolves artifacts by file name under a directory.
type ArtifactStore struct {
	fs  afero.Fs
	dir string
}

func NewArtifactStore(fs afero.Fs, dir string) *ArtifactStore {
	return &ArtifactStore{fs: fs, dir: dir}
}

func (s *ArtifactStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid artifact name %q", ErrArtifactInvalid, name)
	}
	return path.Join(s.dir, name), nil
}

// Exists reports whether the artifact's backing file is present.
func (s *ArtifactStore) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, p)
	return err == nil && ok
}

// Read loads and inspects an artifact. A missing file wraps
// ErrArtifactMissing; content that is not UTF-8 or parses to an empty
// document wraps ErrArtifactInvalid.
func (s *ArtifactStore) Read(name string) (*Artifact, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, name)
		}
		return nil, err
	}
	metrics.ArtifactBytes.Observe(float64(len(data)))

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrArtifactInvalid, name)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc.Find("body").Children().Length() == 0 && strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrArtifactInvalid, name)
	}

	return &Artifact{
		Name:    name,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: string(data),
	}, nil
}

var embedTemplate = template.Must(template.New("embed").Parse(
	`<iframe class="artifact-frame" title="{{.Name}}" srcdoc="{{.Content}}" height="{{.Height}}" scrolling="yes" sandbox="allow-scripts allow-popups" loading="lazy"></iframe>`,
))

// embed renders the artifact verbatim inside its own frame so its size and
// scripts never affect the host page layout.
func (a *Artifact) embed(height int) (template.HTML, error) {
	var buf bytes.Buffer
	err := embedTemplate.Execute(&buf, struct {
		Name    string
		Content string
		Height  int
	}{a.Name, a.Content, height})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// artifactProducer resolves the artifact at render time and maps its
// failure modes onto the inline warning and error messages.
func (s *ArtifactStore) artifactProducer(name string, height int) Producer {
	return func() (Content, error) {
		a, err := s.Read(name)
		if err != nil {
			if errors.Is(err, ErrArtifactMissing) {
				return Content{}, Warning("Plot file not found: %s", name)
			}
			return Content{}, loadError(name, err)
		}
		html, err := a.embed(height)
		if err != nil {
			return Content{}, loadError(name, err)
		}
		return Content{HTML: html, Caption: a.Title}, nil
	}
}

func loadError(name string, err error) error {
	return &Failure{Severity: StatusError, Message: fmt.Sprintf("Error loading plot %s: %v", name, err)}
}
