// Package allocator assigns batch numbers.
//
// A batch number is the two digit year, the product type code, the two digit
// color code and a zero-padded sequence (three digits unless configured
// otherwise), concatenated. The sequence continues from the highest number
// already stored for the same year/type/color prefix.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"batchgen/catalog"
	"batchgen/config"
	"batchgen/database"
	"batchgen/logger"
	"batchgen/model"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultSequenceDigits = 3

	mfdDateLayout = "2006-01-02"
	createdLayout = "2006-01-02 15:04:05"
)

var (
	ErrMissingSelection   = errors.New("please fill all fields")
	ErrUnknownProductType = errors.New("unknown product type")
	ErrUnknownColor       = errors.New("unknown color")
	ErrSequenceExhausted  = database.ErrSequenceExhausted

	// ErrBatchNumberTaken means the computed number is already stored under
	// another prefix, which happens when the sequence width changed after data existed.
	ErrBatchNumberTaken = database.ErrDuplicateBatchNumber
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// Request is the operator's selection.
type Request struct {
	ProductType string `json:"productType" validate:"required"`
	Color       string `json:"color" validate:"required"`
}

// Service allocates and records batch numbers.
type Service struct {
	db          *sqlx.DB
	catalog     *catalog.Catalog
	typeMode    string
	specialType string
	seqDigits   int
	now         func() time.Time
	log         *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBinaryTypeCode switches type codes to "1" for special and "0" for every other type.
func WithBinaryTypeCode(special string) Option {
	return func(s *Service) {
		s.typeMode = config.TypeCodeBinary
		s.specialType = special
	}
}

// WithSequenceDigits sets how many digits the sequence part is padded to.
func WithSequenceDigits(n int) Option {
	return func(s *Service) { s.seqDigits = n }
}

// New creates a Service. Type codes default to the catalog position.
func New(db *sqlx.DB, cat *catalog.Catalog, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		db:        db,
		catalog:   cat,
		typeMode:  config.TypeCodeIndex,
		seqDigits: DefaultSequenceDigits,
		now:       time.Now,
		log:       log.WithComponent("allocator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TypeCode returns the code embedded in batch numbers for pt.
func (s *Service) TypeCode(pt model.ProductType) string {
	if s.typeMode == config.TypeCodeBinary {
		if pt.Name == s.specialType {
			return "1"
		}
		return "0"
	}
	return fmt.Sprintf("%d", pt.Code)
}

// Prefix builds the year/type/color part of a batch number.
func Prefix(year int, typeCode string, colorCode int) string {
	return fmt.Sprintf("%02d%s%02d", year%100, typeCode, colorCode)
}

// Generate validates req, allocates the next batch number for its prefix and
// stores the record. Nothing is stored when an error is returned.
func (s *Service) Generate(ctx context.Context, req Request) (*model.Allocation, error) {
	req.ProductType = strings.TrimSpace(req.ProductType)
	req.Color = strings.TrimSpace(req.Color)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, fmt.Errorf("%w (missing: %s)", ErrMissingSelection, strings.Join(fields, ", "))
		}
		return nil, err
	}

	pt, ok := s.catalog.ProductType(req.ProductType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProductType, req.ProductType)
	}
	color, ok := s.catalog.Color(req.Color)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColor, req.Color)
	}

	now := s.now()
	prefix := Prefix(now.Year(), s.TypeCode(pt), color.Code)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	number, seq, err := database.NextSequenceInTx(ctx, tx, prefix, s.seqDigits)
	if err != nil {
		return nil, err
	}

	rec := &model.Batch{
		BatchNumber:   number,
		BatchPrefix:   prefix,
		SequenceNo:    seq,
		ProductType:   pt.Name,
		Color:         color.Name,
		Mrp:           pt.Price,
		MfdDate:       now.Format(mfdDateLayout),
		DateGenerated: now.Format(createdLayout),
	}
	if _, err := database.InsertBatchInTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch %s: %w", number, err)
	}

	s.log.WithBatch(number).Info("[Allocator] batch number generated",
		"product_type", pt.Name, "color", color.Name, "sequence", seq)

	return &model.Allocation{
		BatchNumber:   number,
		ProductType:   pt.Name,
		Color:         color.Name,
		Mrp:           rec.Mrp,
		MfdDate:       rec.MfdDate,
		DateGenerated: rec.DateGenerated,
	}, nil
}
