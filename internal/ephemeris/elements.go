package ephemeris

import (
	"math"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/orbit"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// elementRates holds the JPL "approximate positions of the planets" elements,
// valid 1800-2050: each value is base + rate·T with T in Julian centuries from
// J2000.0. Angles are degrees, a is AU.
type elementRates struct {
	a, e, i, l, perihelion, node [2]float64
}

func (r elementRates) at(t time.Time) orbit.Elements {
	jc := transform.JulianCenturies(t)
	v := func(p [2]float64) float64 { return p[0] + p[1]*jc }
	rad := func(p [2]float64) float64 { return v(p) * math.Pi / 180 }

	return orbit.NewElements(
		v(r.a),
		v(r.e),
		rad(r.i),
		rad(r.node),
		rad(r.perihelion),
		rad(r.l),
	)
}

var earthRates = elementRates{
	a:          [2]float64{1.00000261, 0.00000562},
	e:          [2]float64{0.01671123, -0.00004392},
	i:          [2]float64{-0.00001531, -0.01294668},
	l:          [2]float64{100.46457166, 35999.37244981},
	perihelion: [2]float64{102.93768193, 0.32327364},
	node:       [2]float64{0, 0},
}

var planetRates = map[Body]elementRates{
	Mercury: {
		a:          [2]float64{0.38709927, 0.00000037},
		e:          [2]float64{0.20563593, 0.00001906},
		i:          [2]float64{7.00497902, -0.00594749},
		l:          [2]float64{252.25032350, 149472.67411175},
		perihelion: [2]float64{77.45779628, 0.16047689},
		node:       [2]float64{48.33076593, -0.12534081},
	},
	Venus: {
		a:          [2]float64{0.72333566, 0.00000390},
		e:          [2]float64{0.00677672, -0.00004107},
		i:          [2]float64{3.39467605, -0.00078890},
		l:          [2]float64{181.97909950, 58517.81538729},
		perihelion: [2]float64{131.60246718, 0.00268329},
		node:       [2]float64{76.67984255, -0.27769418},
	},
	Mars: {
		a:          [2]float64{1.52371034, 0.00001847},
		e:          [2]float64{0.09339410, 0.00007882},
		i:          [2]float64{1.84969142, -0.00813131},
		l:          [2]float64{-4.55343205, 19140.30268499},
		perihelion: [2]float64{-23.94362959, 0.44441088},
		node:       [2]float64{49.55953891, -0.29257343},
	},
	Jupiter: {
		a:          [2]float64{5.20288700, -0.00011607},
		e:          [2]float64{0.04838624, -0.00013253},
		i:          [2]float64{1.30439695, -0.00183714},
		l:          [2]float64{34.39644051, 3034.74612775},
		perihelion: [2]float64{14.72847983, 0.21252668},
		node:       [2]float64{100.47390909, 0.20469106},
	},
	Saturn: {
		a:          [2]float64{9.53667594, -0.00125060},
		e:          [2]float64{0.05386179, -0.00050991},
		i:          [2]float64{2.48599187, 0.00193609},
		l:          [2]float64{49.95424423, 1222.49362201},
		perihelion: [2]float64{92.59887831, -0.41897216},
		node:       [2]float64{113.66242448, -0.28867794},
	},
	Uranus: {
		a:          [2]float64{19.18916464, -0.00196176},
		e:          [2]float64{0.04725744, -0.00004397},
		i:          [2]float64{0.77263783, -0.00242939},
		l:          [2]float64{313.23810451, 428.48202785},
		perihelion: [2]float64{170.95427630, 0.40805281},
		node:       [2]float64{74.01692503, 0.04240589},
	},
	Neptune: {
		a:          [2]float64{30.06992276, 0.00026291},
		e:          [2]float64{0.00859048, 0.00005105},
		i:          [2]float64{1.77004347, 0.00035372},
		l:          [2]float64{-55.12002969, 218.45945325},
		perihelion: [2]float64{44.96476227, -0.32241464},
		node:       [2]float64{131.78422574, -0.00508664},
	},
	Pluto: {
		a:          [2]float64{39.48211675, -0.00031596},
		e:          [2]float64{0.24882730, 0.00005170},
		i:          [2]float64{17.14001206, 0.00004818},
		l:          [2]float64{238.92903833, 145.20780515},
		perihelion: [2]float64{224.06891629, -0.04062942},
		node:       [2]float64{110.30393684, -0.01183482},
	},
}
