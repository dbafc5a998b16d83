package postgres

import (
	"context"
	"fmt"

	"github.com/smartattendai/smart-attendance/internal/database"
)

// AnalyticsRepository serves aggregate attendance statistics.
type AnalyticsRepository struct {
	pool *Pool
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(pool *Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Dashboard returns the headline counters for today.
func (r *AnalyticsRepository) Dashboard(ctx context.Context) (*database.DashboardStats, error) {
	var stats database.DashboardStats

	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM students WHERE status = 'active'",
	).Scan(&stats.TotalStudents)
	if err != nil {
		return nil, fmt.Errorf("count active students: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_date = CURRENT_DATE",
	).Scan(&stats.TodaySessions)
	if err != nil {
		return nil, fmt.Errorf("count today's sessions: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(COUNT(*) FILTER (WHERE a.status = 'late') * 100.0 / NULLIF(COUNT(*), 0), 0)
		FROM attendance a
		JOIN sessions s ON s.id = a.session_id
		WHERE s.session_date = CURRENT_DATE
	`).Scan(&stats.TodayAttendance, &stats.LateRate)
	if err != nil {
		return nil, fmt.Errorf("count today's attendance: %w", err)
	}

	return &stats, nil
}

// StatusDistribution counts records per status over the trailing N days.
func (r *AnalyticsRepository) StatusDistribution(ctx context.Context, days int) ([]database.StatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.status, COUNT(*)
		FROM attendance a
		JOIN sessions s ON s.id = a.session_id
		WHERE s.session_date >= CURRENT_DATE - $1::int
		GROUP BY a.status
		ORDER BY a.status
	`, days)
	if err != nil {
		return nil, fmt.Errorf("query status distribution: %w", err)
	}
	defer rows.Close()

	var counts []database.StatusCount
	for rows.Next() {
		var c database.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// ratioQuery joins every enrolled student with the sessions of their sections
// and the attendance rows they produced.
const ratioQuery = `
	SELECT st.code, st.name, e.section_id,
	       COUNT(a.id) AS attended,
	       COUNT(s.id) AS total,
	       COALESCE(COUNT(a.id) * 100.0 / NULLIF(COUNT(s.id), 0), 0) AS ratio
	FROM students st
	JOIN enrollments e ON e.student_code = st.code
	JOIN sessions s ON s.section_id = e.section_id AND s.session_date <= CURRENT_DATE
	LEFT JOIN attendance a ON a.student_code = st.code AND a.session_id = s.id
	WHERE st.status = 'active'
`

func (r *AnalyticsRepository) queryRatios(ctx context.Context, query string, args ...any) ([]database.StudentRatio, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance ratios: %w", err)
	}
	defer rows.Close()

	var ratios []database.StudentRatio
	for rows.Next() {
		var sr database.StudentRatio
		if err := rows.Scan(&sr.StudentCode, &sr.StudentName, &sr.SectionID,
			&sr.Attended, &sr.Total, &sr.Ratio); err != nil {
			return nil, fmt.Errorf("scan attendance ratio: %w", err)
		}
		ratios = append(ratios, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance ratios: %w", err)
	}
	return ratios, nil
}

// AtRisk returns per-section ratios below the given percentage, worst first.
func (r *AnalyticsRepository) AtRisk(ctx context.Context, belowPercent float64) ([]database.StudentRatio, error) {
	query := ratioQuery + `
		GROUP BY st.code, st.name, e.section_id
		HAVING COUNT(s.id) > 0
		   AND COALESCE(COUNT(a.id) * 100.0 / NULLIF(COUNT(s.id), 0), 0) < $1
		ORDER BY ratio ASC
	`
	return r.queryRatios(ctx, query, belowPercent)
}

// StudentRatios returns the per-section ratios for one student.
func (r *AnalyticsRepository) StudentRatios(ctx context.Context, code string) ([]database.StudentRatio, error) {
	query := ratioQuery + `
		  AND st.code = $1
		GROUP BY st.code, st.name, e.section_id
		ORDER BY e.section_id
	`
	return r.queryRatios(ctx, query, code)
}
