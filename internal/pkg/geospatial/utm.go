// Package geospatial provides the fixed-zone UTM projection used to turn
// geographic contour vertices into linear CAD units.
package geospatial

import (
	"fmt"
	"math"
)

// WGS 84 ellipsoid and transverse Mercator constants.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
	scaleFactor   = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0 // southern hemisphere only
)

// UTM projects between WGS 84 geographic coordinates and a single fixed UTM
// zone. The zone is configuration, never inferred from the data: points
// outside the zone are still projected (the transform is total), choosing an
// appropriate zone is the caller's responsibility.
type UTM struct {
	zone     int
	northern bool
}

// NewUTM creates a projector for the given zone (1-60) and hemisphere.
func NewUTM(zone int, northern bool) (*UTM, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("utm zone must be 1-60, got %d", zone)
	}
	return &UTM{zone: zone, northern: northern}, nil
}

// CRS returns the EPSG identifier of the projected coordinate system.
func (u *UTM) CRS() string {
	if u.northern {
		return fmt.Sprintf("EPSG:%d", 32600+u.zone)
	}
	return fmt.Sprintf("EPSG:%d", 32700+u.zone)
}

// centralMeridian returns the zone's central meridian in radians.
func (u *UTM) centralMeridian() float64 {
	return toRad(float64(u.zone)*6 - 183)
}

// Forward projects geographic (lon, lat) in degrees to UTM easting and
// northing in meters, using the standard transverse Mercator series
// expansion (Snyder 1987, eq. 8-9..8-15).
func (u *UTM) Forward(lon, lat float64) (x, y float64) {
	phi := toRad(lat)
	lambda := toRad(lon)

	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	n := semiMajorAxis / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := math.Tan(phi) * math.Tan(phi)
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lambda - u.centralMeridian())

	m := meridionalArc(phi, e2)

	x = scaleFactor*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + falseEasting

	y = scaleFactor * (m + n*math.Tan(phi)*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))
	if !u.northern {
		y += falseNorthing
	}
	return x, y
}

// Inverse converts UTM easting and northing in meters back to geographic
// (lon, lat) in degrees. Round-tripping Forward recovers coordinates to well
// under 1e-6 degrees.
func (u *UTM) Inverse(x, y float64) (lon, lat float64) {
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	northing := y
	if !u.northern {
		northing -= falseNorthing
	}

	m := northing / scaleFactor
	mu := m / (semiMajorAxis * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sin(phi1), math.Cos(phi1)
	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := math.Tan(phi1) * math.Tan(phi1)
	n1 := semiMajorAxis / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := semiMajorAxis * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (x - falseEasting) / (n1 * scaleFactor)

	phi := phi1 - (n1*math.Tan(phi1)/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lambda := u.centralMeridian() + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return toDeg(lambda), toDeg(phi)
}

// meridionalArc computes the ellipsoidal meridian arc length from the
// equator to latitude phi.
func meridionalArc(phi, e2 float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajorAxis * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
