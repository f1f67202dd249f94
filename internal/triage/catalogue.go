package triage

import "strings"

type Category string

const (
	CategoryGeneral     Category = "General"
	CategoryRespiratory Category = "Respiratory"
	CategoryDigestive   Category = "Digestive"
	CategoryPain        Category = "Pain"
	CategorySkin        Category = "Skin"
)

// Symptom is one entry of the symptom picker.
type Symptom struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

var catalogue = []Symptom{
	{Name: "Fever", Category: CategoryGeneral},
	{Name: "Cough", Category: CategoryRespiratory},
	{Name: "Headache", Category: CategoryPain},
	{Name: "Fatigue", Category: CategoryGeneral},
	{Name: "Stomach Pain", Category: CategoryDigestive},
	{Name: "Sore Throat", Category: CategoryRespiratory},
	{Name: "Nausea / Vomiting", Category: CategoryDigestive},
	{Name: "Dizziness", Category: CategoryGeneral},
	{Name: "Skin Rash", Category: CategorySkin},
	{Name: "Shortness of Breath", Category: CategoryRespiratory},
	{Name: "Chest Pain", Category: CategoryPain},
	{Name: "Back Pain", Category: CategoryPain},
	{Name: "Runny Nose / Congestion", Category: CategoryRespiratory},
}

var categories = []Category{CategoryGeneral, CategoryRespiratory, CategoryDigestive, CategoryPain, CategorySkin}

// Symptoms returns the picker list in display order.
func Symptoms() []Symptom {
	out := make([]Symptom, len(catalogue))
	copy(out, catalogue)
	return out
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func SymptomsIn(c Category) []Symptom {
	var out []Symptom
	for _, s := range catalogue {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

func LookupSymptom(name string) (Symptom, bool) {
	name = strings.TrimSpace(name)
	for _, s := range catalogue {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Symptom{}, false
}

func LookupCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}
