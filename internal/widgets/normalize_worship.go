// internal/widgets/normalize_worship.go
package widgets

// NormalizeGuide builds the canonical how-to guide shape. Step numbers fall
// back to their 1-based position; step text may arrive as description or
// content.
func NormalizeGuide(raw interface{}) *GuideData {
	obj, _ := asObject(raw)
	out := &GuideData{
		Title:         getStringOr(obj, "Guide", "title", "name"),
		Description:   getString(obj, "description", "summary"),
		Steps:         []GuideStep{},
		Prerequisites: getStringList(obj, "prerequisites", "requirements"),
	}

	for i, v := range getList(obj, "steps", "instructions") {
		stepObj, _ := asObject(v)
		out.Steps = append(out.Steps, GuideStep{
			ID:          itemID(stepObj, "step", i),
			StepNumber:  getInt(stepObj, i+1, "stepNumber", "number", "step"),
			Title:       getString(stepObj, "title", "name"),
			Description: getString(stepObj, "description", "content", "text", "instruction"),
			Tips:        getStringList(stepObj, "tips"),
			Warnings:    getStringList(stepObj, "warnings", "cautions"),
		})
	}
	return out
}

// NormalizeDua builds the canonical supplication collection shape. A payload
// carrying a single top-level dua (arabic text at the root) is lifted into a
// one-entry collection.
func NormalizeDua(raw interface{}) *DuaData {
	obj, _ := asObject(raw)
	out := &DuaData{
		Title:    getStringOr(obj, "Duas", "title", "name"),
		Occasion: getString(obj, "occasion", "context"),
		Duas:     []DuaEntry{},
	}

	for i, v := range getList(obj, "duas", "supplications", "entries", "items") {
		entryObj, ok := asObject(v)
		if !ok {
			continue
		}
		out.Duas = append(out.Duas, duaEntry(entryObj, i))
	}

	// Single-dua payloads put the text at the root instead of in a list.
	if len(out.Duas) == 0 && getString(obj, "arabic", "arabicText") != "" {
		out.Duas = append(out.Duas, duaEntry(obj, 0))
	}
	return out
}

func duaEntry(obj map[string]interface{}, index int) DuaEntry {
	return DuaEntry{
		ID:              itemID(obj, "dua", index),
		Arabic:          getString(obj, "arabic", "arabicText"),
		Transliteration: getString(obj, "transliteration"),
		Translation:     getString(obj, "translation", "meaning"),
		Reference:       getString(obj, "reference", "source"),
	}
}

// NormalizeRitual builds the canonical ritual walkthrough shape. A step's dua
// sub-object is either well formed or nil, never partially populated.
func NormalizeRitual(raw interface{}) *RitualData {
	obj, _ := asObject(raw)
	out := &RitualData{
		Title:       getStringOr(obj, "Ritual Guide", "title", "name"),
		Description: getString(obj, "description", "summary"),
		Steps:       []RitualStep{},
	}

	for i, v := range getList(obj, "steps", "instructions") {
		stepObj, _ := asObject(v)
		step := RitualStep{
			ID:             itemID(stepObj, "ritual", i),
			StepNumber:     getInt(stepObj, i+1, "stepNumber", "number", "step"),
			Title:          getString(stepObj, "title", "name"),
			Description:    getString(stepObj, "description", "content", "text"),
			CommonMistakes: getStringList(stepObj, "commonMistakes", "mistakes"),
			Tips:           getStringList(stepObj, "tips"),
		}
		if duaObj, ok := asObject(stepObj["dua"]); ok {
			if arabic := getString(duaObj, "arabic", "arabicText"); arabic != "" {
				step.Dua = &RitualDua{
					Arabic:          arabic,
					Transliteration: getString(duaObj, "transliteration"),
					Translation:     getString(duaObj, "translation", "meaning"),
				}
			}
		}
		out.Steps = append(out.Steps, step)
	}
	return out
}
