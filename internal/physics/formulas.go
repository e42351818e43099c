package physics

import "math"

// AeroDrag is Da = ½·ρ·Cd·A·V², V in m/s.
func AeroDrag(rho, cd, area, v float64) float64 {
	return 0.5 * rho * cd * area * v * v
}

// RollingResistance is Rx = fr·m·g.
func RollingResistance(fr, mass, g float64) float64 {
	return fr * mass * g
}

// LongitudinalAccel is ax = (Fx − Da − Rx) / m.
func LongitudinalAccel(fx, drag, rolling, mass float64) float64 {
	return (fx - drag - rolling) / mass
}

// TorqueFtLb converts N·m to ft-lb.
func TorqueFtLb(nm float64) float64 {
	return nm * NmToFtLb
}

// AngularVelocityRadMin converts engine speed to rad/min.
func AngularVelocityRadMin(rpm float64) float64 {
	return rpm * 2 * math.Pi
}

// PowerFtLbMin is P = T·ω.
func PowerFtLbMin(torqueFtLb, radPerMin float64) float64 {
	return torqueFtLb * radPerMin
}

// HorsepowerFromPower converts ft-lb/min to hp.
func HorsepowerFromPower(ftLbPerMin float64) float64 {
	return ftLbPerMin / hpDivisor
}

// Horsepower is the shortcut HP = T·RPM / 5252 (Gillespie eq. 2.1).
func Horsepower(torqueFtLb, rpm float64) float64 {
	return torqueFtLb * rpm / GillespieDivisor
}

// WheelSpeed returns vehicle speed in m/s for engine rpm through an overall
// gear ratio on a tire of radius r metres (Gillespie eq. 2.6).
func WheelSpeed(rpm, gearRatio, r float64) float64 {
	return rpm * 2 * math.Pi * r / (60 * gearRatio)
}
