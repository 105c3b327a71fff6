package dataset

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
)

// LoadAnnotations parses a CSV annotation file. Each row is
// "class,index" where class is S or V and index is a sample position.
// A header row is skipped if present. Results are cached per path.
func (fl *FileLoader) LoadAnnotations(path string) (*Annotations, error) {
	if cached, ok := fl.annCache.Get(path); ok {
		return cached.(*Annotations), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fileIOErr(err, path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, signalDataErrf(path, "malformed annotation CSV: %v", err)
	}

	ann := &Annotations{}
	for i, row := range rows {
		class := strings.ToUpper(strings.TrimSpace(row[0]))
		idx, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, signalDataErrf(path, "row %d: invalid sample index %q", i+1, row[1])
		}
		switch class {
		case "S":
			ann.SPB = append(ann.SPB, idx)
		case "V":
			ann.PVC = append(ann.PVC, idx)
		default:
			return nil, signalDataErrf(path, "row %d: unknown beat class %q", i+1, row[0])
		}
	}
	sort.Ints(ann.SPB)
	sort.Ints(ann.PVC)

	fl.annCache.Set(path, ann, cache.DefaultExpiration)

	getLogger().Debug("annotations loaded", "path", path, "spb", len(ann.SPB), "pvc", len(ann.PVC))
	return ann, nil
}
