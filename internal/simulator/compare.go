package simulator

import "collision-sim/internal/models"

// CompareSurfaces runs the same stop on every surface. ExtraStoppingM on
// each row is measured against the first surface; with no surfaces given the
// friction table's labels are used, highest grip first.
func (s *Simulator) CompareSurfaces(speedKmh, obstacleDistM, reactionTimeSec float64, surfaces ...string) ([]models.SurfaceComparison, error) {
	if len(surfaces) == 0 {
		surfaces = s.friction.Surfaces()
	}

	rows := make([]models.SurfaceComparison, 0, len(surfaces))
	for _, surface := range surfaces {
		r, err := s.Run(speedKmh, obstacleDistM, surface, reactionTimeSec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.SurfaceComparison{Result: r})
	}
	if len(rows) > 0 {
		base := rows[0].Result.TotalDistM
		for i := range rows {
			rows[i].ExtraStoppingM = rows[i].Result.TotalDistM - base
		}
	}
	return rows, nil
}
