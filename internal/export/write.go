package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format is an output encoding for exported rows.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatHTML  Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xls", "tsv":
		return FormatExcel, nil
	case "html", "pdf":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType and Extension describe the file a format produces.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.ms-excel; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return ".xls"
	case FormatHTML:
		return ".html"
	}
	return ".csv"
}

// Write encodes rows of kind in format f.
func Write(w io.Writer, f Format, kind Kind, rows []Row, opts Options) error {
	switch f {
	case FormatExcel:
		return WriteTSV(w, Labels(kind), rows)
	case FormatHTML:
		return WriteHTML(w, Title(kind), Labels(kind), rows, opts)
	}
	return WriteCSV(w, Labels(kind), rows)
}

func WriteCSV(w io.Writer, labels []string, rows []Row) error {
	return writeDelimited(w, ',', labels, rows)
}

// WriteTSV writes tab-separated values, which spreadsheet programs open
// directly.
func WriteTSV(w io.Writer, labels []string, rows []Row) error {
	return writeDelimited(w, '\t', labels, rows)
}

func writeDelimited(w io.Writer, comma rune, labels []string, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(labels); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Title is the bilingual report heading for kind.
func Title(kind Kind) string {
	switch kind {
	case KindScreening:
		return "जाँच प्रतिवेदन | Screening Report"
	case KindDoseLog:
		return "मात्रा विवरण | Dose Log Report"
	}
	return "दर्ता प्रतिवेदन | Registration Report"
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: 'Noto Sans Devanagari', Arial, sans-serif; margin: 20px; }
h1 { color: #333; text-align: center; }
table { width: 100%; border-collapse: collapse; margin-top: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
tr:nth-child(even) { background-color: #f9f9f9; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="report-info">
<p><strong>Generated on:</strong> {{.Generated}}</p>
<p><strong>Total Records:</strong> {{.Total}}</p>
</div>
<table>
<thead><tr>{{range .Labels}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.Value}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// now is replaced in tests.
var now = time.Now

// WriteHTML renders a printable report. Cell values are escaped.
func WriteHTML(w io.Writer, title string, labels []string, rows []Row, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	p := message.NewPrinter(opts.Locale)
	base, _ := opts.Locale.Base()
	if opts.Locale == language.Und {
		base, _ = language.English.Base()
	}
	return reportTmpl.Execute(w, struct {
		Lang      string
		Title     string
		Generated string
		Total     string
		Labels    []string
		Rows      []Row
	}{
		Lang:      base.String(),
		Title:     title,
		Generated: now().In(loc).Format(stampLayout(opts.Locale)),
		Total:     p.Sprintf("%d", len(rows)),
		Labels:    labels,
		Rows:      rows,
	})
}
