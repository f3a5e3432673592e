// internal/widgets/normalize_places.go
package widgets

// NormalizePlaces builds the canonical nearby-places shape. A place's
// coordinates may arrive nested under location or flattened at the place
// root; either way they normalize to a GeoPoint or nil.
func NormalizePlaces(raw interface{}) *PlacesData {
	obj, _ := asObject(raw)
	out := &PlacesData{
		Title:       getStringOr(obj, "Places", "title", "name"),
		Description: getString(obj, "description"),
		Places:      []Place{},
	}

	for i, v := range getList(obj, "places", "locations", "items") {
		placeObj, _ := asObject(v)
		out.Places = append(out.Places, Place{
			ID:          itemID(placeObj, "place", i),
			Name:        getString(placeObj, "name", "title"),
			Description: getString(placeObj, "description", "content", "text"),
			Category:    getString(placeObj, "category", "type"),
			Location:    geoPoint(placeObj),
			Distance:    getString(placeObj, "distance"),
			Amenities:   getStringList(placeObj, "amenities", "facilities"),
		})
	}
	return out
}

// geoPoint resolves nested-or-flattened coordinates. Both components must be
// numeric for a point to exist.
func geoPoint(obj map[string]interface{}) *GeoPoint {
	src := obj
	if loc, ok := asObject(obj["location"]); ok {
		src = loc
	}
	lat, latOK := getNumber(src, "lat", "latitude")
	lng, lngOK := getNumber(src, "lng", "lon", "longitude")
	if !latOK || !lngOK {
		return nil
	}
	return &GeoPoint{Lat: lat, Lng: lng}
}

// NormalizeCrowd builds the canonical crowd forecast shape.
func NormalizeCrowd(raw interface{}) *CrowdData {
	obj, _ := asObject(raw)
	out := &CrowdData{
		Title:     getStringOr(obj, "Crowd Forecast", "title", "name"),
		Location:  getString(obj, "location", "place"),
		Forecast:  []CrowdPeriod{},
		BestTimes: getStringList(obj, "bestTimes", "recommendedTimes"),
	}

	for i, v := range getList(obj, "forecast", "periods", "levels", "times") {
		periodObj, _ := asObject(v)
		out.Forecast = append(out.Forecast, CrowdPeriod{
			ID:          itemID(periodObj, "crowd", i),
			Period:      getString(periodObj, "period", "time", "timeRange", "label"),
			Level:       getString(periodObj, "level", "crowdLevel", "intensity"),
			Description: getString(periodObj, "description", "note"),
		})
	}
	return out
}

// NormalizeTips builds the canonical tips collection shape. Bare-string tips
// become entries with the string as description.
func NormalizeTips(raw interface{}) *TipsData {
	obj, _ := asObject(raw)
	out := &TipsData{
		Title: getStringOr(obj, "Tips", "title", "name"),
		Tips:  []TipEntry{},
	}

	for i, v := range getList(obj, "tips", "items", "entries") {
		switch tip := v.(type) {
		case string:
			out.Tips = append(out.Tips, TipEntry{
				ID:          synthID("tip", i),
				Description: tip,
			})
		default:
			tipObj, ok := asObject(v)
			if !ok {
				continue
			}
			out.Tips = append(out.Tips, TipEntry{
				ID:          itemID(tipObj, "tip", i),
				Title:       getString(tipObj, "title", "name"),
				Description: getString(tipObj, "description", "content", "text", "tip"),
				Category:    getString(tipObj, "category"),
			})
		}
	}
	return out
}
