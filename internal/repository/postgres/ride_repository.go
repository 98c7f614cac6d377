package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type rideRepository struct {
	db *sqlx.DB
}

func NewRideRepository(db *sqlx.DB) repository.RideRepository {
	return &rideRepository{db: db}
}

// rideRow is the flat column layout of the rides table.
type rideRow struct {
	ID            string          `db:"id"`
	RiderID       string          `db:"rider_id"`
	StartLat      float64         `db:"start_lat"`
	StartLon      float64         `db:"start_lon"`
	StartAddress  string          `db:"start_address"`
	EndLat        sql.NullFloat64 `db:"end_lat"`
	EndLon        sql.NullFloat64 `db:"end_lon"`
	EndAddress    sql.NullString  `db:"end_address"`
	FarePerSeat   float64         `db:"fare_per_seat"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	PaymentStatus string          `db:"payment_status"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	CompletedAt   *time.Time      `db:"completed_at"`
	CancelledAt   *time.Time      `db:"cancelled_at"`
}

func toRideRow(r *domain.Ride) rideRow {
	row := rideRow{
		ID:            r.ID,
		RiderID:       r.RiderID,
		StartLat:      r.Start.Lat,
		StartLon:      r.Start.Lon,
		StartAddress:  r.Start.Address,
		FarePerSeat:   r.FarePerSeat,
		Currency:      r.Currency,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		CompletedAt:   r.CompletedAt,
		CancelledAt:   r.CancelledAt,
	}
	if r.End != nil {
		row.EndLat = sql.NullFloat64{Float64: r.End.Lat, Valid: true}
		row.EndLon = sql.NullFloat64{Float64: r.End.Lon, Valid: true}
		row.EndAddress = sql.NullString{String: r.End.Address, Valid: true}
	}
	return row
}

func (row rideRow) toDomain() *domain.Ride {
	ride := &domain.Ride{
		ID:            row.ID,
		RiderID:       row.RiderID,
		Start:         domain.Location{Lat: row.StartLat, Lon: row.StartLon, Address: row.StartAddress},
		FarePerSeat:   row.FarePerSeat,
		Currency:      row.Currency,
		Status:        domain.RideStatus(row.Status),
		PaymentStatus: domain.PaymentState(row.PaymentStatus),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		CompletedAt:   row.CompletedAt,
		CancelledAt:   row.CancelledAt,
	}
	if row.EndLat.Valid && row.EndLon.Valid {
		ride.End = &domain.Location{Lat: row.EndLat.Float64, Lon: row.EndLon.Float64, Address: row.EndAddress.String}
	}
	return ride
}

func (r *rideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, rider_id, start_lat, start_lon, start_address,
			end_lat, end_lon, end_address, fare_per_seat, currency,
			status, payment_status, created_at, updated_at
		)
		VALUES (
			:id, :rider_id, :start_lat, :start_lon, :start_address,
			:end_lat, :end_lon, :end_address, :fare_per_seat, :currency,
			:status, :payment_status, :created_at, :updated_at
		)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, toRideRow(ride))
	return err
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	return r.get(ctx, `SELECT * FROM rides WHERE id = $1`, id)
}

func (r *rideRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.get(ctx, `SELECT * FROM rides WHERE id = $1 FOR UPDATE`, id)
}

func (r *rideRepository) get(ctx context.Context, query, id string) (*domain.Ride, error) {
	var row rideRow
	err := conn(ctx, r.db).GetContext(ctx, &row, query, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrRideNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *rideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET status = :status, payment_status = :payment_status,
		    fare_per_seat = :fare_per_seat, updated_at = :updated_at,
		    completed_at = :completed_at, cancelled_at = :cancelled_at
		WHERE id = :id
	`
	result, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, toRideRow(ride))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRideNotFound
	}
	return nil
}

func (r *rideRepository) ListWithin(ctx context.Context, status domain.RideStatus, box domain.BoundingBox) ([]*domain.Ride, error) {
	var rows []rideRow
	query := `
		SELECT * FROM rides
		WHERE status = $1
		  AND start_lat BETWEEN $2 AND $3
		  AND start_lon BETWEEN $4 AND $5
	`
	err := conn(ctx, r.db).SelectContext(ctx, &rows, query, status, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, err
	}
	return toRides(rows), nil
}

func (r *rideRepository) ListByRider(ctx context.Context, riderID string, limit, offset int) ([]*domain.Ride, error) {
	var rows []rideRow
	query := `
		SELECT * FROM rides
		WHERE rider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, riderID, limit, offset); err != nil {
		return nil, err
	}
	return toRides(rows), nil
}

func toRides(rows []rideRow) []*domain.Ride {
	rides := make([]*domain.Ride, 0, len(rows))
	for _, row := range rows {
		rides = append(rides, row.toDomain())
	}
	return rides
}
