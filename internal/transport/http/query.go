package http

import (
	"fmt"
	"net/url"
	"strconv"

	"dataexplorer/internal/config"
	apierrors "dataexplorer/internal/errors"
	api "dataexplorer/pkg/contracts/api/v1"
	"dataexplorer/pkg/contracts/domain"
)

// queryParser collects per-field conversion errors so a request reports
// every bad parameter at once
type queryParser struct {
	values url.Values
	errs   []apierrors.ValidationError
}

func newQueryParser(values url.Values) *queryParser {
	return &queryParser{values: values}
}

func (p *queryParser) str(key, def string) string {
	if v := p.values.Get(key); v != "" {
		return v
	}
	return def
}

func (p *queryParser) boolean(key string, def bool) bool {
	raw := p.values.Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, apierrors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("%s must be true or false", key),
		})
		return def
	}
	return v
}

func (p *queryParser) integer(key string, def int) int {
	raw := p.values.Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, apierrors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("%s must be a valid integer", key),
		})
		return def
	}
	return v
}

// err returns the collected conversion errors as a validation problem
func (p *queryParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return apierrors.NewValidationErrors(p.errs)
}

func (p *queryParser) settings() api.SettingsQuery {
	def := api.DefaultSettingsQuery()
	return api.SettingsQuery{
		DropDuplicates:    p.boolean("drop_duplicates", def.DropDuplicates),
		ImputeNumeric:     p.boolean("impute_numeric", def.ImputeNumeric),
		ImputeCategorical: p.boolean("impute_categorical", def.ImputeCategorical),
		SampleRows:        p.integer("sample_rows", def.SampleRows),
	}
}

func (p *queryParser) chart() api.ChartQuery {
	return api.ChartQuery{
		SettingsQuery: p.settings(),
		X:             p.str("x", ""),
		Y:             p.str("y", domain.CountColumn),
		Color:         p.str("color", domain.NoColor),
		Kind:          p.str("kind", string(domain.ChartBar)),
		Agg:           p.str("agg", string(domain.AggCount)),
		Format:        p.str("format", ""),
	}
}

func (p *queryParser) pca() api.PCAQuery {
	return api.PCAQuery{
		SettingsQuery: p.settings(),
		Components:    p.integer("components", config.DefaultPCAComponents),
		Standardize:   p.boolean("standardize", true),
		Format:        p.str("format", ""),
	}
}

func (p *queryParser) image() api.ImageQuery {
	return api.ImageQuery{
		SettingsQuery: p.settings(),
		Format:        p.str("format", ""),
	}
}
