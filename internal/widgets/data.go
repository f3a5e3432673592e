// internal/widgets/data.go
package widgets

// NormalizedData is the canonical, render-ready shape of a widget payload.
// Every concrete type is produced by a total normalizer: required arrays are
// always present (possibly empty) and scalar fields carry defaults.
type NormalizedData interface {
	WidgetTitle() string
}

// --- Itinerary ---

type ItineraryData struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Days        []ItineraryDay `json:"days"`
	Tips        []string       `json:"tips"`
}

type ItineraryDay struct {
	ID         string              `json:"id"`
	Day        int                 `json:"day"`
	Title      string              `json:"title"`
	Activities []ItineraryActivity `json:"activities"`
}

type ItineraryActivity struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (d *ItineraryData) WidgetTitle() string { return d.Title }

// --- Checklist ---

type ChecklistData struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       []ChecklistItem `json:"items"`
}

type ChecklistItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Checked  bool   `json:"checked"`
}

func (d *ChecklistData) WidgetTitle() string { return d.Title }

// --- Budget ---

type BudgetData struct {
	Title     string       `json:"title"`
	Currency  string       `json:"currency"`
	Total     float64      `json:"total"`
	Breakdown []BudgetItem `json:"breakdown"`
	Tips      []string     `json:"tips"`
}

type BudgetItem struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes"`
}

func (d *BudgetData) WidgetTitle() string { return d.Title }

// --- Guide ---

type GuideData struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Steps         []GuideStep `json:"steps"`
	Prerequisites []string    `json:"prerequisites"`
}

type GuideStep struct {
	ID          string   `json:"id"`
	StepNumber  int      `json:"stepNumber"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tips        []string `json:"tips"`
	Warnings    []string `json:"warnings"`
}

func (d *GuideData) WidgetTitle() string { return d.Title }

// --- Dua ---

type DuaData struct {
	Title    string     `json:"title"`
	Occasion string     `json:"occasion"`
	Duas     []DuaEntry `json:"duas"`
}

type DuaEntry struct {
	ID              string `json:"id"`
	Arabic          string `json:"arabic"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
	Reference       string `json:"reference"`
}

func (d *DuaData) WidgetTitle() string { return d.Title }

// --- Ritual ---

type RitualData struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Steps       []RitualStep `json:"steps"`
}

type RitualStep struct {
	ID          string   `json:"id"`
	StepNumber  int      `json:"stepNumber"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	// Dua is nil unless the source carried a well-formed dua object; partial
	// objects never leak through.
	Dua            *RitualDua `json:"dua"`
	CommonMistakes []string   `json:"commonMistakes"`
	Tips           []string   `json:"tips"`
}

type RitualDua struct {
	Arabic          string `json:"arabic"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
}

func (d *RitualData) WidgetTitle() string { return d.Title }

// --- Places ---

type PlacesData struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Places      []Place `json:"places"`
}

type Place struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    *GeoPoint `json:"location"`
	Distance    string    `json:"distance"`
	Amenities   []string  `json:"amenities"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (d *PlacesData) WidgetTitle() string { return d.Title }

// --- Crowd ---

type CrowdData struct {
	Title     string        `json:"title"`
	Location  string        `json:"location"`
	Forecast  []CrowdPeriod `json:"forecast"`
	BestTimes []string      `json:"bestTimes"`
}

type CrowdPeriod struct {
	ID          string `json:"id"`
	Period      string `json:"period"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

func (d *CrowdData) WidgetTitle() string { return d.Title }

// --- Navigation ---

type NavigationData struct {
	Title    string           `json:"title"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Distance string           `json:"distance"`
	Duration string           `json:"duration"`
	Steps    []NavigationStep `json:"steps"`
}

type NavigationStep struct {
	ID          string `json:"id"`
	Instruction string `json:"instruction"`
	Distance    string `json:"distance"`
	Landmark    string `json:"landmark"`
}

func (d *NavigationData) WidgetTitle() string { return d.Title }

// --- Tips ---

type TipsData struct {
	Title string     `json:"title"`
	Tips  []TipEntry `json:"tips"`
}

type TipEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (d *TipsData) WidgetTitle() string { return d.Title }
