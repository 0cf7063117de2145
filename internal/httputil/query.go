package httputil

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// ParseTime reads the "t" query parameter as RFC 3339. An absent value
// yields now.
func ParseTime(q url.Values, now time.Time) (time.Time, error) {
	v := q.Get("t")
	if v == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("invalid t parameter, must be RFC 3339")
	}
	return t, nil
}

// ParseFloat reads name as a finite float in [lo, hi], returning def when
// absent.
func ParseFloat(q url.Values, name string, lo, hi, def float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || f < lo || f > hi {
		return 0, fmt.Errorf("invalid %s parameter, must be %g to %g", name, lo, hi)
	}
	return f, nil
}

// ParseObserver reads the lat and lon query parameters. ok is false when
// both are absent. Supplying only one of them is an error, as is omitting
// both when required is set.
func ParseObserver(q url.Values, required bool) (loc transform.LatLong, ok bool, err error) {
	hasLat, hasLon := q.Has("lat"), q.Has("lon")
	if !hasLat && !hasLon {
		if required {
			return transform.LatLong{}, false, errors.New("lat and lon parameters are required")
		}
		return transform.LatLong{}, false, nil
	}
	if hasLat != hasLon {
		return transform.LatLong{}, false, errors.New("lat and lon must be given together")
	}

	lat, err := ParseFloat(q, "lat", -90, 90, 0)
	if err != nil {
		return transform.LatLong{}, false, err
	}
	lon, err := ParseFloat(q, "lon", -180, 180, 0)
	if err != nil {
		return transform.LatLong{}, false, err
	}
	return transform.NewLatLong(lat, lon), true, nil
}
