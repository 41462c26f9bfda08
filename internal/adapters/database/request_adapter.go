package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
)

var requestColumns = []interface{}{
	"id", "patient_id", "latitude", "longitude", "service_category",
	"urgency_level", "status", "matched_provider_id", "match_score",
	"created_at", "updated_at",
}

// RequestAdapter implements the RequestRepository interface
type RequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRequestAdapter creates a new request adapter
func NewRequestAdapter(client *postgres.Client) repositories.RequestRepository {
	return &RequestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new service request
func (a *RequestAdapter) Create(ctx context.Context, request *entities.Request) error {
	record := goqu.Record{
		"id":                  request.ID,
		"patient_id":          request.PatientID,
		"latitude":            request.Location.Latitude,
		"longitude":           request.Location.Longitude,
		"service_category":    string(request.ServiceCategory),
		"urgency_level":       request.UrgencyLevel,
		"status":              string(request.Status),
		"matched_provider_id": nullableString(request.MatchedProviderID),
		"match_score":         nullableFloat(request.MatchScore),
		"created_at":          request.CreatedAt,
		"updated_at":          request.UpdatedAt,
	}

	query, args, err := a.db.Insert("requests").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create request", err)
	}

	return nil
}

// GetByID retrieves a request by ID
func (a *RequestAdapter) GetByID(ctx context.Context, id string) (*entities.Request, error) {
	query, args, err := a.db.Select(requestColumns...).
		From("requests").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request, err := scanRequest(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("request not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get request", err)
	}

	return request, nil
}

// ListPending retrieves pending requests matching the filter
func (a *RequestAdapter) ListPending(ctx context.Context, filter repositories.PendingRequestFilter) ([]*entities.Request, error) {
	ds := a.db.Select(requestColumns...).
		From("requests").
		Where(goqu.Ex{"status": string(entities.RequestStatusPending)})

	if filter.Bounds != nil {
		ds = ds.Where(
			goqu.C("latitude").Between(goqu.Range(filter.Bounds.South, filter.Bounds.North)),
			goqu.C("longitude").Between(goqu.Range(filter.Bounds.West, filter.Bounds.East)),
		)
	}
	if filter.ServiceCategory != "" {
		ds = ds.Where(goqu.Ex{"service_category": string(filter.ServiceCategory)})
	}
	ds = ds.Order(goqu.I("created_at").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list pending requests", err)
	}
	defer rows.Close()

	requests := []*entities.Request{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan request", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating requests", err)
	}

	return requests, nil
}

// SettleMatch transitions a request from pending to matched and records the
// winning provider and score. The WHERE clause doubles as an optimistic
// concurrency check: a concurrent settle that already moved the request out
// of pending makes this a no-op, surfaced as a conflict.
func (a *RequestAdapter) SettleMatch(ctx context.Context, requestID, providerID string, score float64) error {
	query, args, err := a.db.Update("requests").
		Set(goqu.Record{
			"status":              string(entities.RequestStatusMatched),
			"matched_provider_id": providerID,
			"match_score":         score,
			"updated_at":          time.Now(),
		}).
		Where(goqu.Ex{
			"id":     requestID,
			"status": string(entities.RequestStatusPending),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build settle query", err)
	}

	return a.execConditional(ctx, requestID, query, args, "request is no longer pending")
}

// TransitionStatus performs a conditional status transition
func (a *RequestAdapter) TransitionStatus(ctx context.Context, requestID string, from, to entities.RequestStatus) error {
	query, args, err := a.db.Update("requests").
		Set(goqu.Record{
			"status":     string(to),
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{
			"id":     requestID,
			"status": string(from),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build transition query", err)
	}

	return a.execConditional(ctx, requestID, query, args, "request is not in the expected status")
}

// execConditional runs a compare-and-swap update and maps a zero-row result
// to a conflict (or not-found when the request does not exist at all)
func (a *RequestAdapter) execConditional(ctx context.Context, requestID, query string, args []interface{}, conflictMessage string) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update request", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read update result", err)
	}
	if rows > 0 {
		return nil
	}

	existsQuery, existsArgs, err := a.db.Select(goqu.L("1")).
		From("requests").
		Where(goqu.Ex{"id": requestID}).
		ToSQL()
	if err != nil {
		return apperrors.NewConflictError(conflictMessage)
	}

	var one int
	if err := a.client.DB().QueryRowContext(ctx, existsQuery, existsArgs...).Scan(&one); err == sql.ErrNoRows {
		return apperrors.NewNotFoundError("request not found")
	}

	return apperrors.NewConflictError(conflictMessage)
}

func scanRequest(row rowScanner) (*entities.Request, error) {
	request := &entities.Request{}
	var matchedProviderID sql.NullString
	var matchScore sql.NullFloat64

	err := row.Scan(
		&request.ID,
		&request.PatientID,
		&request.Location.Latitude,
		&request.Location.Longitude,
		&request.ServiceCategory,
		&request.UrgencyLevel,
		&request.Status,
		&matchedProviderID,
		&matchScore,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if matchedProviderID.Valid {
		v := matchedProviderID.String
		request.MatchedProviderID = &v
	}
	if matchScore.Valid {
		v := matchScore.Float64
		request.MatchScore = &v
	}

	return request, nil
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
