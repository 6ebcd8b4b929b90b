package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

const settingsID = "global"

// Store implements repository.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// NewStore opens path and returns a ready store.
func NewStore(path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

const eggColumns = `id, name, type_id, type, weight, coefficient, incubation_start, incubation_days,
	high_humidity_loss, mid_humidity_loss, low_humidity_loss, notes, daily_weights, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEgg(row rowScanner) (models.Egg, error) {
	var (
		egg                  models.Egg
		weights              string
		createdAt, updatedAt string
	)
	err := row.Scan(&egg.ID, &egg.Name, &egg.TypeID, &egg.Type, &egg.Weight, &egg.Coefficient,
		&egg.IncubationStart, &egg.IncubationDays, &egg.HighHumidityLoss, &egg.MidHumidityLoss,
		&egg.LowHumidityLoss, &egg.Notes, &weights, &createdAt, &updatedAt)
	if err != nil {
		return models.Egg{}, err
	}
	if err := json.Unmarshal([]byte(weights), &egg.DailyWeights); err != nil {
		return models.Egg{}, fmt.Errorf("decoding daily weights of egg %s: %w", egg.ID, err)
	}
	if egg.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Egg{}, err
	}
	if egg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Egg{}, err
	}
	return egg, nil
}

func encodeSeries(series trajectory.WeightSeries) (string, error) {
	if series == nil {
		series = trajectory.WeightSeries{}
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return "", fmt.Errorf("encoding daily weights: %w", err)
	}
	return string(raw), nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", v, err)
	}
	return t, nil
}

// CreateEgg inserts a new egg.
func (s *Store) CreateEgg(ctx context.Context, egg models.Egg) error {
	weights, err := encodeSeries(egg.DailyWeights)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO eggs (`+eggColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		egg.ID, egg.Name, egg.TypeID, egg.Type, egg.Weight, egg.Coefficient, egg.IncubationStart,
		egg.IncubationDays, egg.HighHumidityLoss, egg.MidHumidityLoss, egg.LowHumidityLoss, egg.Notes,
		weights, formatTime(egg.CreatedAt), formatTime(egg.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting egg: %w", err)
	}
	return nil
}

// GetEgg loads one egg.
func (s *Store) GetEgg(ctx context.Context, id string) (models.Egg, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eggColumns+` FROM eggs WHERE id = ?`, id)
	egg, err := scanEgg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Egg{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Egg{}, fmt.Errorf("loading egg %s: %w", id, err)
	}
	return egg, nil
}

// ListEggs returns every egg by creation time, newest first.
func (s *Store) ListEggs(ctx context.Context) ([]models.Egg, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eggColumns+` FROM eggs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing eggs: %w", err)
	}
	defer rows.Close()

	eggs := []models.Egg{}
	for rows.Next() {
		egg, err := scanEgg(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning egg: %w", err)
		}
		eggs = append(eggs, egg)
	}
	return eggs, rows.Err()
}

// UpdateEgg overwrites every column of an existing egg.
func (s *Store) UpdateEgg(ctx context.Context, egg models.Egg) error {
	weights, err := encodeSeries(egg.DailyWeights)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE eggs SET name = ?, type_id = ?, type = ?, weight = ?,
		coefficient = ?, incubation_start = ?, incubation_days = ?, high_humidity_loss = ?,
		mid_humidity_loss = ?, low_humidity_loss = ?, notes = ?, daily_weights = ?, updated_at = ?
		WHERE id = ?`,
		egg.Name, egg.TypeID, egg.Type, egg.Weight, egg.Coefficient, egg.IncubationStart,
		egg.IncubationDays, egg.HighHumidityLoss, egg.MidHumidityLoss, egg.LowHumidityLoss,
		egg.Notes, weights, formatTime(egg.UpdatedAt), egg.ID)
	if err != nil {
		return fmt.Errorf("updating egg %s: %w", egg.ID, err)
	}
	return expectOne(res)
}

// DeleteEgg removes an egg.
func (s *Store) DeleteEgg(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM eggs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting egg %s: %w", id, err)
	}
	return expectOne(res)
}

// SaveWeightSeries replaces the stored series in a single statement.
func (s *Store) SaveWeightSeries(ctx context.Context, id string, series trajectory.WeightSeries) error {
	weights, err := encodeSeries(series)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE eggs SET daily_weights = ?, updated_at = ? WHERE id = ?`,
		weights, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("saving weights of egg %s: %w", id, err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListEggTypes returns egg types ordered by name.
func (s *Store) ListEggTypes(ctx context.Context) ([]models.EggType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, incubation_period, coefficient, notes, created_at
		FROM egg_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing egg types: %w", err)
	}
	defer rows.Close()

	types := []models.EggType{}
	for rows.Next() {
		t, err := scanEggType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func scanEggType(row rowScanner) (models.EggType, error) {
	var (
		t         models.EggType
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.IncubationPeriod, &t.Coefficient, &t.Notes, &createdAt); err != nil {
		return models.EggType{}, err
	}
	var err error
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

// GetEggType loads one egg type.
func (s *Store) GetEggType(ctx context.Context, id string) (models.EggType, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, incubation_period, coefficient, notes, created_at
		FROM egg_types WHERE id = ?`, id)
	t, err := scanEggType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EggType{}, repository.ErrNotFound
	}
	if err != nil {
		return models.EggType{}, fmt.Errorf("loading egg type %s: %w", id, err)
	}
	return t, nil
}

// SaveEggType inserts or replaces an egg type.
func (s *Store) SaveEggType(ctx context.Context, t models.EggType) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO egg_types (id, name, incubation_period, coefficient, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, incubation_period = excluded.incubation_period,
			coefficient = excluded.coefficient, notes = excluded.notes`,
		t.ID, t.Name, t.IncubationPeriod, t.Coefficient, t.Notes, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving egg type: %w", err)
	}
	return nil
}

// DeleteEggType removes an egg type.
func (s *Store) DeleteEggType(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM egg_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting egg type %s: %w", id, err)
	}
	return expectOne(res)
}

// ListPinHoleTypes returns pin hole types in insertion order.
func (s *Store) ListPinHoleTypes(ctx context.Context) ([]trajectory.PinHoleType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, daily_loss_rate_increase, description
		FROM pin_hole_types ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing pin hole types: %w", err)
	}
	defer rows.Close()

	types := []trajectory.PinHoleType{}
	for rows.Next() {
		var t trajectory.PinHoleType
		if err := rows.Scan(&t.ID, &t.Name, &t.DailyLossRateIncrease, &t.Description); err != nil {
			return nil, fmt.Errorf("scanning pin hole type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SavePinHoleType inserts or replaces a pin hole type.
func (s *Store) SavePinHoleType(ctx context.Context, t trajectory.PinHoleType) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO pin_hole_types (id, name, daily_loss_rate_increase, description)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			daily_loss_rate_increase = excluded.daily_loss_rate_increase, description = excluded.description`,
		t.ID, t.Name, t.DailyLossRateIncrease, t.Description)
	if err != nil {
		return fmt.Errorf("saving pin hole type: %w", err)
	}
	return nil
}

// DeletePinHoleType removes a pin hole type.
func (s *Store) DeletePinHoleType(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pin_hole_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pin hole type %s: %w", id, err)
	}
	return expectOne(res)
}

// GetSettings returns the stored settings, storing the defaults on first use.
func (s *Store) GetSettings(ctx context.Context) (trajectory.RecommendationSettings, error) {
	var settings trajectory.RecommendationSettings
	err := s.db.QueryRowContext(ctx, `SELECT min_day_for_first_pin_hole, days_between_pin_holes
		FROM recommendation_settings WHERE id = ?`, settingsID).
		Scan(&settings.MinDayForFirstPinHole, &settings.DaysBetweenPinHoles)
	if errors.Is(err, sql.ErrNoRows) {
		settings = trajectory.DefaultSettings()
		return settings, s.SaveSettings(ctx, settings)
	}
	if err != nil {
		return trajectory.RecommendationSettings{}, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings trajectory.RecommendationSettings) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO recommendation_settings (id, min_day_for_first_pin_hole, days_between_pin_holes)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET min_day_for_first_pin_hole = excluded.min_day_for_first_pin_hole,
			days_between_pin_holes = excluded.days_between_pin_holes`,
		settingsID, settings.MinDayForFirstPinHole, settings.DaysBetweenPinHoles)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
