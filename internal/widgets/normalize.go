// internal/widgets/normalize.go
package widgets

// Normalize maps arbitrary decoded widget JSON onto the canonical shape for
// its type. Every per-type normalizer is total: it never fails, tolerates nil
// and non-object input, and always returns the type's required arrays
// (possibly empty). Unknown types return nil; the validator rejects them.
func Normalize(t WidgetType, raw interface{}) NormalizedData {
	switch t {
	case TypeItinerary:
		return NormalizeItinerary(raw)
	case TypeChecklist:
		return NormalizeChecklist(raw)
	case TypeBudget:
		return NormalizeBudget(raw)
	case TypeGuide:
		return NormalizeGuide(raw)
	case TypeDua:
		return NormalizeDua(raw)
	case TypeRitual:
		return NormalizeRitual(raw)
	case TypePlaces:
		return NormalizePlaces(raw)
	case TypeCrowd:
		return NormalizeCrowd(raw)
	case TypeNavigation:
		return NormalizeNavigation(raw)
	case TypeTips:
		return NormalizeTips(raw)
	default:
		return nil
	}
}

// NormalizeItinerary builds the canonical itinerary shape. Day numbers fall
// back to their 1-based position; activity text may arrive as description,
// content or text.
func NormalizeItinerary(raw interface{}) *ItineraryData {
	obj, _ := asObject(raw)
	out := &ItineraryData{
		Title:       getStringOr(obj, "Travel Itinerary", "title", "name"),
		Description: getString(obj, "description", "summary"),
		Days:        []ItineraryDay{},
		Tips:        getStringList(obj, "tips"),
	}

	for i, v := range getList(obj, "days", "itinerary", "schedule") {
		dayObj, _ := asObject(v)
		day := ItineraryDay{
			ID:         itemID(dayObj, "day", i),
			Day:        getInt(dayObj, i+1, "day", "dayNumber", "number"),
			Title:      getStringOr(dayObj, "", "title", "name"),
			Activities: []ItineraryActivity{},
		}
		for j, a := range getList(dayObj, "activities", "items", "events") {
			actObj, _ := asObject(a)
			day.Activities = append(day.Activities, ItineraryActivity{
				ID:          itemID(actObj, "activity", j),
				Time:        getString(actObj, "time", "startTime"),
				Description: getString(actObj, "description", "content", "text", "title", "activity"),
				Location:    getString(actObj, "location", "place"),
			})
		}
		out.Days = append(out.Days, day)
	}
	return out
}

// NormalizeChecklist builds the canonical checklist shape. Checked state
// defaults to false; durable checked state lives in the widget state store,
// not the payload.
func NormalizeChecklist(raw interface{}) *ChecklistData {
	obj, _ := asObject(raw)
	out := &ChecklistData{
		Title:       getStringOr(obj, "Checklist", "title", "name"),
		Description: getString(obj, "description"),
		Items:       []ChecklistItem{},
	}

	for i, v := range getList(obj, "items", "tasks", "entries") {
		switch item := v.(type) {
		case string:
			// Bare-string items arrive often enough to deserve a shape.
			out.Items = append(out.Items, ChecklistItem{
				ID:   synthID("item", i),
				Text: item,
			})
		default:
			itemObj, ok := asObject(v)
			if !ok {
				continue
			}
			out.Items = append(out.Items, ChecklistItem{
				ID:       itemID(itemObj, "item", i),
				Text:     getString(itemObj, "text", "label", "description", "content", "item"),
				Category: getString(itemObj, "category", "group"),
				Checked:  getBool(itemObj, "checked", "done", "completed"),
			})
		}
	}
	return out
}

// NormalizeBudget builds the canonical budget shape. An absent total is the
// sum of numeric breakdown amounts; non-numeric amounts contribute 0.
func NormalizeBudget(raw interface{}) *BudgetData {
	obj, _ := asObject(raw)
	out := &BudgetData{
		Title:     getStringOr(obj, "Budget Estimate", "title", "name"),
		Currency:  getStringOr(obj, "USD", "currency"),
		Breakdown: []BudgetItem{},
		Tips:      getStringList(obj, "tips", "savingTips"),
	}

	var sum float64
	for i, v := range getList(obj, "breakdown", "items", "categories", "expenses") {
		itemObj, _ := asObject(v)
		amount, _ := getNumber(itemObj, "amount", "cost", "price")
		sum += amount
		out.Breakdown = append(out.Breakdown, BudgetItem{
			ID:       itemID(itemObj, "budget", i),
			Category: getString(itemObj, "category", "name", "label"),
			Amount:   amount,
			Notes:    getString(itemObj, "notes", "description"),
		})
	}

	if total, ok := getNumber(obj, "total", "totalAmount"); ok {
		out.Total = total
	} else {
		out.Total = sum
	}
	return out
}

// NormalizeNavigation builds the canonical navigation shape.
func NormalizeNavigation(raw interface{}) *NavigationData {
	obj, _ := asObject(raw)
	out := &NavigationData{
		Title:    getStringOr(obj, "Navigation Route", "title", "name"),
		From:     getString(obj, "from", "origin", "start"),
		To:       getString(obj, "to", "destination", "end"),
		Distance: getString(obj, "distance", "totalDistance"),
		Duration: getString(obj, "duration", "estimatedTime", "walkingTime"),
		Steps:    []NavigationStep{},
	}

	for i, v := range getList(obj, "steps", "directions", "instructions", "route") {
		stepObj, _ := asObject(v)
		out.Steps = append(out.Steps, NavigationStep{
			ID:          itemID(stepObj, "nav", i),
			Instruction: getString(stepObj, "instruction", "description", "content", "text", "direction"),
			Distance:    getString(stepObj, "distance"),
			Landmark:    getString(stepObj, "landmark", "marker"),
		})
	}
	return out
}
