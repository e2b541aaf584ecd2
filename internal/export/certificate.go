package export

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// Certificate is the completion certificate handed to a guardian.
type Certificate struct {
	Number       string
	ChildName    string
	SerialNo     string
	FatherName   string
	MotherName   string
	DateOfBirth  string
	Age          string
	TotalDoses   int
	StartDate    string
	LastDoseDate string
	IssuedAt     time.Time
	IssuedBy     string
	HealthCenter string
}

// CertificateNumber is "SP-" followed by the last six digits of t in Unix
// milliseconds.
func CertificateNumber(t time.Time) string {
	return fmt.Sprintf("SP-%06d", t.UnixMilli()%1_000_000)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var certTmpl = template.Must(template.New("certificate").Funcs(template.FuncMap{"na": orNA}).Parse(`<!DOCTYPE html>
<html lang="ne">
<head>
<meta charset="utf-8">
<title>स्वर्णबिन्दु प्राशन प्रमाणपत्र | Certificate {{.Number}}</title>
<style>
@page { size: A4; margin: 20mm; }
body { font-family: 'Noto Sans Devanagari', Arial, sans-serif; margin: 0; padding: 20px; }
.certificate { border: 8px double #b8860b; padding: 40px; text-align: center; }
.number { text-align: right; font-size: 12px; color: #555; }
dl { display: grid; grid-template-columns: 1fr 1fr; gap: 8px 24px; text-align: left; margin: 30px auto; max-width: 600px; }
dt { font-weight: bold; }
.signature { margin-top: 60px; text-align: right; }
</style>
</head>
<body>
<div class="certificate">
<p class="number">प्रमाणपत्र नं. | Certificate No: {{.Number}}</p>
<h1>स्वर्णबिन्दु प्राशन प्रमाणपत्र</h1>
<h2>Certificate of Swarnabindu Prashan</h2>
<p>यो प्रमाणित गरिन्छ कि | This is to certify that</p>
<h2>{{.ChildName}}</h2>
<dl>
<dt>दर्ता नं. | Serial No</dt><dd>{{na .SerialNo}}</dd>
<dt>बुबाको नाम | Father</dt><dd>{{na .FatherName}}</dd>
<dt>आमाको नाम | Mother</dt><dd>{{na .MotherName}}</dd>
<dt>जन्म मिति | Date of Birth</dt><dd>{{na .DateOfBirth}}</dd>
<dt>उमेर | Age</dt><dd>{{na .Age}}</dd>
<dt>कुल मात्रा | Total Doses</dt><dd>{{.TotalDoses}}</dd>
<dt>सुरु मिति | Start Date</dt><dd>{{na .StartDate}}</dd>
<dt>अन्तिम मिति | Last Dose</dt><dd>{{na .LastDoseDate}}</dd>
</dl>
<div class="signature">
<p>{{.IssuedBy}}</p>
<p>{{.HealthCenter}}</p>
<p>{{.IssuedAt.Format "2006-01-02"}}</p>
</div>
</div>
</body>
</html>
`))

func WriteCertificate(w io.Writer, c Certificate) error {
	return certTmpl.Execute(w, c)
}
