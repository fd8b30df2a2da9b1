package repository

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// The SurrealDB SDK hands back loosely typed values: record IDs may arrive
// as strings, models.RecordID, or raw maps, and numbers decode as assorted
// widths depending on the codec. The helpers below normalize those shapes
// so the repositories can stay focused on queries.

// isUniqueConstraintError reports whether err looks like a unique index
// violation. SurrealDB surfaces these as plain query errors, so the check
// is textual.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range []string{"unique", "duplicate", "already exists"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// extractRecordID normalizes a record identifier to its "table:id" form.
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return v.String()
	case *models.RecordID:
		if v == nil {
			return ""
		}
		return v.String()
	case map[string]interface{}:
		tb, tbOK := v["tb"].(string)
		rid, ridOK := v["id"].(string)
		if tbOK && ridOK {
			return tb + ":" + rid
		}
	}

	// Unknown shape; round-trip through JSON and let the SDK decode it.
	data, err := json.Marshal(id)
	if err != nil {
		return ""
	}
	var rid models.RecordID
	if err := json.Unmarshal(data, &rid); err != nil {
		return ""
	}
	return rid.String()
}

// extractQueryResults pulls the rows out of a query response, unwrapping
// the per-statement {status, result} envelope when present.
func extractQueryResults(result interface{}) ([]interface{}, bool) {
	results, ok := result.([]interface{})
	if !ok || len(results) == 0 {
		return nil, false
	}
	if envelope, ok := results[0].(map[string]interface{}); ok {
		if rows, ok := envelope["result"].([]interface{}); ok {
			return rows, true
		}
	}
	// Already a bare row slice.
	return results, true
}

// extractCount reads the count field from a `SELECT count() ...` response.
func extractCount(result interface{}) int {
	resp, ok := result.(map[string]interface{})
	if !ok {
		return 0
	}
	if status, ok := resp["status"].(string); ok && status == "OK" {
		if rows, ok := resp["result"].([]interface{}); ok && len(rows) > 0 {
			if row, ok := rows[0].(map[string]interface{}); ok {
				return extractCountValue(row["count"])
			}
		}
	}
	return extractCountValue(resp["count"])
}

// extractCountValue coerces any numeric width the codec may produce.
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case float32:
		return int(c)
	case float64:
		return int(c)
	}
	return 0
}

// Field accessors over a decoded record map. Missing keys and wrong types
// yield zero values rather than errors; the schema guarantees the fields
// the repositories actually read.

func getString(record map[string]interface{}, key string) string {
	v, _ := record[key].(string)
	return v
}

// getStringPtr treats an empty string as absent.
func getStringPtr(record map[string]interface{}, key string) *string {
	if v, ok := record[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func getInt(record map[string]interface{}, key string) int {
	return extractCountValue(record[key])
}

func getBool(record map[string]interface{}, key string) bool {
	v, _ := record[key].(bool)
	return v
}

func getTime(record map[string]interface{}, key string) time.Time {
	if t := getTimePtr(record, key); t != nil {
		return *t
	}
	return time.Time{}
}

// getTimePtr handles the datetime shapes SurrealDB returns: RFC 3339
// strings over the HTTP codec and native datetime values over CBOR.
func getTimePtr(record map[string]interface{}, key string) *time.Time {
	switch v := record[key].(type) {
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	return nil
}

func getStringSlice(record map[string]interface{}, key string) []string {
	items, ok := record[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// timeOrNil and strOrNil turn optional fields into query variables, mapping
// nil pointers to SurrealDB NULL.

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
