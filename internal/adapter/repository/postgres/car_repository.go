package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

type CarRepository struct {
	db *sql.DB
}

func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{db: db}
}

func (r *CarRepository) Create(ctx context.Context, car *domain.Car) error {
	if err := car.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO cars (id, booking_status, booked_by, booked_at, price_amount_minor, price_currency)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, car.ID, car.BookingStatus, car.BookedBy, car.BookedAt, car.Price.AmountMinor, car.Price.Currency)
	if err != nil {
		return errors.Wrap(err, "failed to insert car")
	}

	return nil
}

func (r *CarRepository) GetByID(ctx context.Context, carID uuid.UUID) (*domain.Car, error) {
	query := `
	SELECT id, booking_status, booked_by, booked_at, price_amount_minor, price_currency
	FROM cars
	WHERE id = $1
	`

	car, err := scanCar(r.db.QueryRowContext(ctx, query, carID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCarNotFound
		}

		return nil, errors.Wrap(err, "failed to load car")
	}

	return car, nil
}

func (r *CarRepository) ListAvailable(ctx context.Context) ([]domain.Car, error) {
	query := `
	SELECT id, booking_status, booked_by, booked_at, price_amount_minor, price_currency
	FROM cars
	WHERE booking_status = 'available'
	ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list available cars")
	}

	defer rows.Close()

	cars := []domain.Car{}
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan car")
		}

		cars = append(cars, *car)
	}

	return cars, errors.Wrap(rows.Err(), "failed to iterate cars")
}

// Reserve is a compare-and-swap on booking_status. All three booking columns
// change in the one statement or not at all; the follow-up read only decides
// which rejection to report.
func (r *CarRepository) Reserve(ctx context.Context, carID uuid.UUID, actor string, at time.Time) error {
	query := `
	UPDATE cars
	SET booking_status = 'booked',
		booked_by = $2,
		booked_at = $3
	WHERE id = $1 AND booking_status = 'available'
	`

	result, err := r.db.ExecContext(ctx, query, carID, actor, at)
	if err != nil {
		return errors.Wrap(err, "failed to reserve car")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read reserve result")
	}

	if rowsAffected == 1 {
		return nil
	}

	var status domain.BookingStatus
	err = r.db.QueryRowContext(ctx, `SELECT booking_status FROM cars WHERE id = $1`, carID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCarNotFound
		}

		return errors.Wrap(err, "failed to classify rejected reservation")
	}

	return domain.ErrAlreadyBooked
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var car domain.Car
	var bookedBy sql.NullString
	var bookedAt sql.NullTime

	err := row.Scan(
		&car.ID,
		&car.BookingStatus,
		&bookedBy,
		&bookedAt,
		&car.Price.AmountMinor,
		&car.Price.Currency,
	)
	if err != nil {
		return nil, err
	}

	if bookedBy.Valid {
		car.BookedBy = &bookedBy.String
	}

	if bookedAt.Valid {
		t := bookedAt.Time.UTC()
		car.BookedAt = &t
	}

	if err := car.Validate(); err != nil {
		return nil, err
	}

	return &car, nil
}
