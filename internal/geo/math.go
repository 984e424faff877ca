package geo

import "math"

// GameToMetricZ converts Game Coordinates (0..Size) to World WGS84 (Lon/Lat)
// using a Mercator projection adapted for the game map size.
//
// It maps the game world (0 to mapSize) to the longitude range [-180, 180]
// and applies an inverse Mercator projection for latitude.
func GameToMetricZ(x, z, mapSize float64) (lon, lat float64) {
	longitudeScale := 360.0 / mapSize
	lon = x*longitudeScale - 180.0

	mercatorScale := (2.0 * math.Pi) / mapSize
	mercatorY := z*mercatorScale - math.Pi

	latRad := (2.0 * math.Atan(math.Exp(mercatorY))) - (math.Pi * 0.5)

	lat = toDegrees(latRad)
	if lat > MaxLatitude {
		lat = MaxLatitude
	} else if lat < -MaxLatitude {
		lat = -MaxLatitude
	}

	return lon, lat
}

// GamePoint converts a game position to a Point, see GameToMetricZ.
func GamePoint(x, z, mapSize float64) Point {
	lon, lat := GameToMetricZ(x, z, mapSize)
	return Point{Lat: lat, Lng: lon}
}

// MaxLatitude is the Web Mercator latitude limit.
const MaxLatitude = 85.05112878

// MercatorY projects a latitude onto the unit Web Mercator Y axis [-Pi, Pi].
func MercatorY(lat float64) float64 {
	if lat > MaxLatitude {
		lat = MaxLatitude
	} else if lat < -MaxLatitude {
		lat = -MaxLatitude
	}
	return math.Log(math.Tan(math.Pi/4 + toRadians(lat)/2))
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

func toDegrees(rad float64) float64 {
	return rad * (180 / math.Pi)
}
