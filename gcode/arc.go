package gcode

import (
	"math"

	"grblgo/status"
)

// arcAngularTravelEpsilon is the floating-point slack used to tell a
// true full circle (identical start/end under an I/J/K offset) from
// accumulated numerical noise. Grbl's shipped constant, kept exactly.
const arcAngularTravelEpsilon = 5e-7

// planeAxes returns (axis0, axis1, linearAxis) for the active plane-select
// modal word: G17->XY/Z, G18->ZX/Y, G19->YZ/X.
func planeAxes(plane int) (int, int, int) {
	switch plane {
	case 180:
		return 2, 0, 1
	case 190:
		return 1, 2, 0
	default: // 170, G17
		return 0, 1, 2
	}
}

// arcCenterFromRadius implements the perpendicular-offset construction:
// given the programmed chord (x,y) in plane-local coordinates
// (target relative to start) and a requested radius r, returns the center
// offset (relative to start) in the same coordinates.
func arcCenterFromRadius(x, y, r float64, clockwise bool) (i, j float64, code status.Code) {
	x2 := x * x
	y2 := y * y
	d2 := x2 + y2
	if d2 == 0 {
		return 0, 0, status.GcodeInvalidTarget
	}

	rSign := 1.0
	if r < 0 {
		rSign = -1.0
		r = -r
	}

	disc := 4*r*r - d2
	if disc < 0 {
		return 0, 0, status.GcodeArcRadiusError
	}

	hX2divD := -math.Sqrt(disc) / math.Sqrt(d2)
	if !clockwise {
		hX2divD = -hX2divD
	}
	// A negative R means "take the long way around" - flip again.
	hX2divD *= rSign

	i = 0.5 * (x - y*hX2divD)
	j = 0.5 * (y + x*hX2divD)
	return i, j, status.OK
}

// arcCenterFromOffset validates the I/J/K offset form: the offset-side
// radius (hypot(i,j)) and the target-side radius (hypot(x-i,y-j)) must
// agree within tolerance (0.5mm, OR 0.1% of radius AND
// 0.005mm). Returns the agreed radius.
func arcCenterFromOffset(x, y, i, j float64) (radius float64, code status.Code) {
	offsetR := math.Hypot(i, j)
	targetR := math.Hypot(x-i, y-j)

	deltaR := math.Abs(offsetR - targetR)
	if deltaR > 0.5 {
		return 0, status.GcodeInvalidTarget
	}
	if deltaR > 0.001*offsetR && deltaR > 0.005 {
		return 0, status.GcodeInvalidTarget
	}
	return offsetR, status.OK
}

// arcSegment is one line-interpolated slice of a circular or helical arc,
// expressed as an absolute target in all three axes.
type arcSegment struct {
	target [3]float64
}

// interpolateArc slices a circular (optionally helical, via linear-axis
// travel) arc into short line segments whose chord error stays within
// arcTolerance, mirroring grbl's mc_arc. start/end are absolute machine mm
// positions; centerOffset is the center relative to start, in plane
// coordinates; clockwise
// selects G2 vs G3 winding.
func interpolateArc(start, end [3]float64, plane int, centerOffset [2]float64, clockwise bool, arcTolerance float64) ([]arcSegment, status.Code) {
	axis0, axis1, axisLin := planeAxes(plane)

	center0 := start[axis0] + centerOffset[0]
	center1 := start[axis1] + centerOffset[1]

	rStart := math.Hypot(start[axis0]-center0, start[axis1]-center1)
	rEnd := math.Hypot(end[axis0]-center0, end[axis1]-center1)
	radius := (rStart + rEnd) / 2

	startAngle := math.Atan2(start[axis1]-center1, start[axis0]-center0)
	endAngle := math.Atan2(end[axis1]-center1, end[axis0]-center0)

	var angularTravel float64
	if clockwise {
		angularTravel = startAngle - endAngle
	} else {
		angularTravel = endAngle - startAngle
	}
	if angularTravel < 0 {
		angularTravel += 2 * math.Pi
	}

	// Full circle: identical start/end under I/J/K, distinguished from
	// floating-point noise by arcAngularTravelEpsilon.
	if start[axis0] == end[axis0] && start[axis1] == end[axis1] && start[axisLin] == end[axisLin] {
		if angularTravel < arcAngularTravelEpsilon {
			angularTravel = 2 * math.Pi
		}
	}

	if arcTolerance <= 0 {
		arcTolerance = 0.002
	}
	// Number of segments for the requested chord error, as grbl derives it:
	// segments = travel / (2*acos(1 - tolerance/radius)).
	segHalfAngle := math.Acos(1 - arcTolerance/radius)
	if segHalfAngle <= 0 || math.IsNaN(segHalfAngle) {
		segHalfAngle = 0.1
	}
	segments := int(math.Ceil(angularTravel / (2 * segHalfAngle)))
	if segments < 1 {
		segments = 1
	}

	linearTravel := end[axisLin] - start[axisLin]
	thetaPerSeg := angularTravel / float64(segments)
	if clockwise {
		thetaPerSeg = -thetaPerSeg
	}
	linearPerSeg := linearTravel / float64(segments)

	out := make([]arcSegment, 0, segments)
	angle := startAngle
	pos := start
	for s := 1; s <= segments; s++ {
		if s == segments {
			pos = end
		} else {
			angle += thetaPerSeg
			pos[axis0] = center0 + radius*math.Cos(angle)
			pos[axis1] = center1 + radius*math.Sin(angle)
			pos[axisLin] = start[axisLin] + linearPerSeg*float64(s)
		}
		out = append(out, arcSegment{target: pos})
	}
	return out, status.OK
}
