// Package sandbox generates reproducible demo intake records for training
// sessions and for exercising the offline cache and sync path.
package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/internal/form"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	Children              int   `json:"children"`
	ScreeningsPerChild    int   `json:"screeningsPerChild"`
	FollowUpDosesPerChild int   `json:"followUpDosesPerChild"`
	Seed                  int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{Children: 20, ScreeningsPerChild: 1, FollowUpDosesPerChild: 1}
}

var (
	givenNames = []string{
		"आरव", "आयुष", "अनिशा", "प्रिया", "सुजन", "सृष्टि", "रोशन", "निशा",
		"बिबेक", "सम्झना", "अर्जुन", "कृतिका", "दिपक", "पूजा", "सागर", "रिया",
	}
	familyNames = []string{"श्रेष्ठ", "तामाङ", "गुरुङ", "राई", "अधिकारी", "थापा", "महर्जन", "शर्मा", "यादव", "मगर"}
	parentNames = []string{"राम", "सीता", "हरि", "गीता", "श्याम", "कमला", "गोपाल", "सरिता", "बिष्णु", "मीना"}
	places      = []struct{ district, palika string }{
		{"काठमाडौं", "काठमाडौं महानगरपालिका"},
		{"ललितपुर", "गोदावरी नगरपालिका"},
		{"भक्तपुर", "मध्यपुर थिमी नगरपालिका"},
		{"कास्की", "पोखरा महानगरपालिका"},
		{"चितवन", "भरतपुर महानगरपालिका"},
	}
	doseTimes      = []string{"बिहान", "दिउँसो"}
	vaccination    = []string{"complete", "complete", "complete", "partial"}
	mildConditions = []string{"cold", "skin_issues"}
	staff          = []string{"डा. शर्मा", "अ.न.मी. थापा", "हे.अ. गुरुङ"}
)

// DataGenerator produces records from a seeded source so the same seed
// always yields the same data.
type DataGenerator struct {
	rng *rand.Rand
	ref time.Time
	seq int
}

// NewDataGenerator creates a generator. Ages are computed against ref.
func NewDataGenerator(seed int64, ref time.Time) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed)), ref: ref}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) phone() string {
	return fmt.Sprintf("98%08d", g.rng.Intn(100000000))
}

// birthDate returns a date that makes the child between 6 and 60 months old.
func (g *DataGenerator) birthDate() string {
	months := dosage.MinEligibleMonths + g.rng.Intn(dosage.MaxEligibleMonths-dosage.MinEligibleMonths+1)
	first := time.Date(g.ref.Year(), g.ref.Month()-time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 0, g.rng.Intn(28)).Format("2006-01-02")
}

// IntakeRecord returns a complete, eligible intake form record. Derived
// fields are left for the caller to apply.
func (g *DataGenerator) IntakeRecord() form.FormData {
	g.seq++
	place := places[g.rng.Intn(len(places))]
	gender := "male"
	if g.rng.Intn(2) == 0 {
		gender = "female"
	}
	father, mother := g.pick(parentNames), g.pick(parentNames)

	rec := form.FormData{
		form.FieldChildName:     g.pick(givenNames) + " " + g.pick(familyNames),
		form.FieldBirthDate:     g.birthDate(),
		form.FieldGender:        gender,
		"guardian_name":         mother,
		"father_name":           father,
		"mother_name":           mother,
		form.FieldContactNumber: g.phone(),
		"district":              place.district,
		"palika":                place.palika,
		"ward":                  float64(1 + g.rng.Intn(32)),
		"vaccination_status":    g.pick(vaccination),
		"weight":                float64(60+g.rng.Intn(140)) / 10,
		"height":                float64(600+g.rng.Intn(500)) / 10,
		"dose_time":             g.pick(doseTimes),
		"administered_by":       g.pick(staff),
		form.FieldChildReaction: "normal",
		"local_id":              fmt.Sprintf("demo-%d-%04d", g.rng.Int63()%1_000_000, g.seq),
	}
	if g.rng.Intn(4) == 0 {
		rec[form.FieldHealthConditions] = []any{g.pick(mildConditions)}
	}
	return rec
}

// Screening returns a screening of the child with serial, daysBefore days
// before ref.
func (g *DataGenerator) Screening(serial string, daysBefore int) map[string]interface{} {
	return map[string]interface{}{
		"serial_no":       serial,
		"screening_date":  g.ref.AddDate(0, 0, -daysBefore).Format("2006-01-02"),
		"screening_type":  "follow-up",
		"weight":          float64(60+g.rng.Intn(140)) / 10,
		"referral_status": "not-required",
		"administered_by": g.pick(staff),
	}
}

// DoseLog returns an earlier dose matching the child's age band on that day.
func (g *DataGenerator) DoseLog(serial, birthDate string, daysBefore int) map[string]interface{} {
	on := g.ref.AddDate(0, 0, -daysBefore)
	d := dosage.Derive(birthDate, on)
	amount := string(d.Dose)
	if amount == "" {
		amount = "1"
	}
	return map[string]interface{}{
		"serial_no":       serial,
		"dose_date":       on.Format("2006-01-02"),
		"dose_amount":     amount,
		"dose_time":       g.pick(doseTimes),
		"administered_by": g.pick(staff),
		"child_reaction":  "normal",
	}
}

// Child groups one intake record with visits recorded on paper before the
// child was registered. The visits reference the child by serial number,
// which is assigned when the intake record is stored.
type Child struct {
	Intake     form.FormData
	Screenings []map[string]interface{}
	DoseLogs   []map[string]interface{}
}

// SetSerial points every follow-up visit at serial.
func (c *Child) SetSerial(serial string) {
	for _, s := range c.Screenings {
		s["serial_no"] = serial
	}
	for _, d := range c.DoseLogs {
		d["serial_no"] = serial
	}
}

type Seeder struct {
	config SeedConfig
	gen    *DataGenerator
}

func NewSeeder(config SeedConfig, ref time.Time) *Seeder {
	if config.Seed == 0 {
		config.Seed = ref.UnixNano()
	}
	return &Seeder{config: config, gen: NewDataGenerator(config.Seed, ref)}
}

// Generate builds the configured number of children. Earlier visits are
// spaced a month apart going back from ref.
func (s *Seeder) Generate() []Child {
	out := make([]Child, 0, s.config.Children)
	for i := 0; i < s.config.Children; i++ {
		c := Child{Intake: s.gen.IntakeRecord()}
		birth := c.Intake.String(form.FieldBirthDate)
		for v := 1; v <= s.config.ScreeningsPerChild; v++ {
			c.Screenings = append(c.Screenings, s.gen.Screening("", 30*v))
		}
		for v := 1; v <= s.config.FollowUpDosesPerChild; v++ {
			c.DoseLogs = append(c.DoseLogs, s.gen.DoseLog("", birth, 30*v))
		}
		out = append(out, c)
	}
	return out
}

// ExportNDJSON writes one intake record per line.
func ExportNDJSON(w io.Writer, children []Child) error {
	enc := json.NewEncoder(w)
	for _, c := range children {
		if err := enc.Encode(c.Intake); err != nil {
			return err
		}
	}
	return nil
}
