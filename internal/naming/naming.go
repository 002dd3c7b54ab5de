// Package naming extracts simulation parameters from the folder and file
// naming convention of the simulator's result tree.
//
// A data file lives at <folder>/<file> where the folder is named
// "<date>_<letter>_<fr>" (three parts) or "<prefix>_<date>_<letter>_<fr>"
// (four parts) and the file is named "<anything>_<multi>&<awa>&<ash>.csv".
package naming

import (
	"path/filepath"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/pkg/types"
)

const dataExt = ".csv"

// Parse derives FR, MULTI, ASH, AWA, DATE and PATH from a data file path.
// Values are passed through as text; no numeric validation is done here.
func Parse(path string) (types.Fields, error) {
	segments := strings.Split(filepath.ToSlash(path), "/")
	if len(segments) < 2 {
		return nil, swerrors.NewPathError(path)
	}
	folder, file := segments[len(segments)-2], segments[len(segments)-1]

	date, fr, ok := parseFolder(folder)
	if !ok {
		return nil, swerrors.NewPathError(path)
	}

	multi, awa, ash, ok := parseFile(file)
	if !ok {
		return nil, swerrors.NewPathError(path)
	}

	return types.Fields{
		types.FieldFR:    fr,
		types.FieldMulti: multi,
		types.FieldASH:   ash,
		types.FieldAWA:   awa,
		types.FieldPath:  path,
		types.FieldDate:  date,
	}, nil
}

func parseFolder(folder string) (date, fr string, ok bool) {
	parts := strings.Split(folder, "_")
	switch len(parts) {
	case 3:
		return parts[0], parts[2], true
	case 4:
		return parts[1], parts[3], true
	}
	return "", "", false
}

func parseFile(file string) (multi, awa, ash string, ok bool) {
	parts := strings.Split(file, "_")
	tail := strings.TrimSuffix(parts[len(parts)-1], dataExt)

	values := strings.Split(tail, "&")
	if len(values) != 3 {
		return "", "", "", false
	}
	return values[0], values[1], values[2], true
}
