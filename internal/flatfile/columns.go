package flatfile

import (
	"fmt"
	"strings"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// Header spellings accepted for each logical column, most specific first.
var (
	TypeViaAliases    = []string{"tipo_via", "tipovia", "tipo_de_via", "tipo", "street_type", "type_via"}
	StreetNameAliases = []string{"calle", "nombre_calle", "nombre_via", "street_name", "street", "nombre"}
)

// ColumnMap holds the positions of the two logical columns in a header.
type ColumnMap struct {
	TypeVia    int
	StreetName int
}

// headerKey folds a header for alias comparison: trimmed, lower-case,
// unaccented, spaces and hyphens as underscores.
func headerKey(h string) string {
	k := normalize.Fold(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(k)
}

// MapColumns finds both logical columns in header. For each one the first
// alias present wins; an alias present twice, or no alias at all, is a
// pipeline.ErrValidation listing the detected headers.
func MapColumns(header []string) (ColumnMap, error) {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = headerKey(h)
	}

	typeIdx, err := findColumn(keys, TypeViaAliases)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("%w: street type column: %w; detected columns: %s", pipeline.ErrValidation, err, strings.Join(header, ", "))
	}
	nameIdx, err := findColumn(keys, StreetNameAliases)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("%w: street name column: %w; detected columns: %s", pipeline.ErrValidation, err, strings.Join(header, ", "))
	}

	return ColumnMap{TypeVia: typeIdx, StreetName: nameIdx}, nil
}

func findColumn(keys, aliases []string) (int, error) {
	for _, alias := range aliases {
		idx := -1
		for i, k := range keys {
			if k != alias {
				continue
			}
			if idx >= 0 {
				return -1, fmt.Errorf("%q appears more than once", alias)
			}
			idx = i
		}
		if idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("missing (accepted: %s)", strings.Join(aliases, ", "))
}
