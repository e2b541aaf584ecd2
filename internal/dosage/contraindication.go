package dosage

// Health conditions that rule out administering a dose on the day.
var contraindicated = map[string]bool{
	"fever":    true,
	"diarrhea": true,
	"vomiting": true,
}

// Contraindications returns the selected conditions that block a dose, in
// the order they were selected. Duplicates are reported once.
func Contraindications(conditions []string) []string {
	var found []string
	seen := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		if contraindicated[c] && !seen[c] {
			seen[c] = true
			found = append(found, c)
		}
	}
	return found
}

// IsContraindicated reports whether a single condition blocks a dose.
func IsContraindicated(condition string) bool {
	return contraindicated[condition]
}
