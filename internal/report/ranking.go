package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"sort"

	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/storage/models"
)

// TopDistricts selects district, state (when present) and the score column,
// sorts by score descending and keeps the first n rows. The sort is stable:
// equal scores keep their table order. Missing scores sort last.
func TopDistricts(t *dataset.Table, scoreCol string, n int) (*dataset.Table, error) {
	cols := []string{models.ColDistrict}
	if t.Has(models.ColState) {
		cols = append(cols, models.ColState)
	}
	cols = append(cols, scoreCol)

	projected, err := t.Select(cols...)
	if err != nil {
		return nil, err
	}
	scores, err := projected.Floats(scoreCol)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if math.IsNaN(sb) {
			return !math.IsNaN(sa)
		}
		if math.IsNaN(sa) {
			return false
		}
		return sa > sb
	})

	return projected.Take(order).Head(n), nil
}

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(
	`<div class="data-table" style="max-height:{{.Height}}px"><table><thead><tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range $i, $row := .Rows}}<tr><td class="rank">{{inc $i}}</td>{{range $row}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table></div>`,
))

func renderTable(t *dataset.Table, height int) (template.HTML, error) {
	rows := make([][]string, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}

	var buf bytes.Buffer
	err := tableTemplate.Execute(&buf, struct {
		Columns []string
		Rows    [][]string
		Height  int
	}{t.Columns(), rows, height})
	if err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return template.HTML(buf.String()), nil
}
