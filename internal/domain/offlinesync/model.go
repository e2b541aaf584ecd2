package offlinesync

import "encoding/json"

// Batch is what a field device pushes. Items stay raw so one malformed
// entry fails alone.
type Batch struct {
	Registrations []json.RawMessage `json:"registrations"`
	Screenings    []json.RawMessage `json:"screenings"`
	DoseLogs      []json.RawMessage `json:"doseLogs"`
}

func (b Batch) Len() int {
	return len(b.Registrations) + len(b.Screenings) + len(b.DoseLogs)
}

// ItemError names a failed item by the identifier the device sent.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type Tally struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []ItemError `json:"errors"`
}

func newTally() Tally { return Tally{Errors: []ItemError{}} }

func (t *Tally) ok() { t.Success++ }

func (t *Tally) fail(id string, err error) {
	t.Failed++
	t.Errors = append(t.Errors, ItemError{ID: id, Error: err.Error()})
}

type Results struct {
	Registrations Tally `json:"registrations"`
	Screenings    Tally `json:"screenings"`
	DoseLogs      Tally `json:"doseLogs"`
}

// Failed returns the ids of every failed item.
func (r Results) Failed() map[string]bool {
	out := make(map[string]bool)
	for _, t := range []Tally{r.Registrations, r.Screenings, r.DoseLogs} {
		for _, e := range t.Errors {
			out[e.ID] = true
		}
	}
	return out
}

// Response is the body of POST /sync.
type Response struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Results Results `json:"results"`
}
