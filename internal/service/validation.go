package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that reports fields by their form name and
// knows the "price" and "quantity" rules used by CreateProductDto.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, ok := parsePrice(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		_, ok := parseQuantity(fl.Field().String())
		return ok
	})
	return v
}

// validateCreate normalizes the form fields and converts price and stock.
// Rule violations are returned as *ValidationError.
func (s *service) validateCreate(in CreateProductDto) (CreateProductDto, decimal.Decimal, int32, error) {
	in = CreateProductDto{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       strings.TrimSpace(in.Price),
		Category:    strings.TrimSpace(in.Category),
		Stock:       strings.TrimSpace(in.Stock),
	}
	if err := s.validate.Struct(in); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return in, decimal.Zero, 0, err
		}
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return in, decimal.Zero, 0, &perrors.ValidationError{Fields: fields}
	}
	price, _ := parsePrice(in.Price)
	stock, _ := parseQuantity(in.Stock)
	return in, price, stock, nil
}

// Price bounds. DynamoDB numbers carry at most 38 significant digits.
const (
	maxPriceDigits = 38
	maxPriceScale  = 4
)

// parsePrice accepts non-negative plain decimal notation within the bounds above.
// Exponent forms are rejected.
func parsePrice(s string) (decimal.Decimal, bool) {
	if len(s) > maxPriceDigits+2 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	if d.Exponent() < -maxPriceScale || len(d.Coefficient().String()) > maxPriceDigits {
		return decimal.Zero, false
	}
	return d, true
}

func parseQuantity(s string) (int32, bool) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < 0 {
		return 0, false
	}
	return int32(v), true
}
