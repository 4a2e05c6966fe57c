package scan

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// loadAnnotations reads the optional annotation sidecar. JSON files map
// image id to a field object; CSV files carry an image_id column plus one
// column per field. A missing file yields an empty table.
//
// Every field value is flattened to a string, whatever its JSON type. This
// mirrors the behavior of the original packaging script; numeric or boolean
// annotations lose their type here.
func loadAnnotations(path string) (map[string]map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read annotations %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONAnnotations(path, data)
	case ".csv":
		return parseCSVAnnotations(path, data)
	default:
		return nil, fmt.Errorf("unsupported annotation format: %s", path)
	}
}

func parseJSONAnnotations(path string, data []byte) (map[string]map[string]string, error) {
	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid annotation json %s: %w", path, err)
	}

	table := make(map[string]map[string]string, len(raw))
	for id, fields := range raw {
		flat := make(map[string]string, len(fields))
		for key, value := range fields {
			flat[key] = stringify(value)
		}
		table[id] = flat
	}
	return table, nil
}

func parseCSVAnnotations(path string, data []byte) (map[string]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid annotation csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	idCol := -1
	for i, name := range header {
		if name == "image_id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("annotation csv %s has no image_id column", path)
	}

	table := make(map[string]map[string]string, len(records)-1)
	for _, row := range records[1:] {
		if idCol >= len(row) || row[idCol] == "" {
			continue
		}
		fields := make(map[string]string, len(header)-1)
		for i, name := range header {
			if i == idCol || i >= len(row) {
				continue
			}
			fields[name] = row[i]
		}
		table[row[idCol]] = fields
	}
	return table, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
