// Package codec encodes and decodes toilet records to and from their
// persisted textual form: a delimited metadata block of key/value pairs
// followed by a human-readable markdown body. The body is purely
// descriptive and never parsed back; the metadata block is the record.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"toiletmap/pkg/model"
)

// Delimiter marks the start and the end of the metadata block. It is
// matched as an entire line, so the character sequence may safely appear
// inside string values.
const Delimiter = "---"

// ErrMalformedRecord is returned when the metadata block is not properly
// delimited.
var ErrMalformedRecord = errors.New("malformed toilet record")

// ErrMissingField is returned when a required metadata key is absent.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError reports which required key was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// requiredFields lists every key a record must carry. Note that
// description is optional and defaults to empty.
var requiredFields = []string{
	"id", "name", "address", "latitude", "longitude", "isFree",
	"rating", "totalRatings", "likes", "dislikes", "images",
	"createdAt", "updatedAt",
}

// Encode serializes a record. String values are double-quoted with
// backslash escaping, numbers and booleans are written bare (rating
// always carries one decimal place) and the images list is a JSON
// array of quoted URLs.
func Encode(t *model.Toilet) []byte {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	writeString(&b, "id", string(t.ID))
	writeString(&b, "name", t.Name)
	writeString(&b, "address", t.Address)
	writeLine(&b, "latitude", formatFloat(t.Latitude))
	writeLine(&b, "longitude", formatFloat(t.Longitude))
	writeString(&b, "description", t.Description)
	writeLine(&b, "isFree", strconv.FormatBool(t.IsFree))
	writeLine(&b, "rating", strconv.FormatFloat(t.Rating, 'f', 1, 64))
	writeLine(&b, "totalRatings", strconv.Itoa(t.TotalRatings))
	writeLine(&b, "likes", strconv.Itoa(t.Likes))
	writeLine(&b, "dislikes", strconv.Itoa(t.Dislikes))
	writeLine(&b, "images", formatImages(t.Images))
	writeString(&b, "createdAt", t.CreatedAt)
	writeString(&b, "updatedAt", t.UpdatedAt)
	b.WriteString(Delimiter + "\n")
	b.WriteString(renderBody(t))
	return []byte(b.String())
}

// Decode parses a record blob. The block must open and close with the
// delimiter line, unknown keys are ignored and every required field must
// be present. Field values are coerced to their declared types even when
// line-level inference produced something else.
func Decode(content []byte) (*model.Toilet, error) {
	lines := strings.Split(string(content), "\n")
	var meta []string
	delims := 0
	for _, line := range lines {
		if strings.TrimRight(line, "\r") == Delimiter {
			delims++
			if delims == 2 {
				break
			}
			continue
		}
		if delims == 1 {
			meta = append(meta, line)
		}
	}
	if delims < 2 {
		return nil, fmt.Errorf("%w: expected two %q delimiter lines, found %d", ErrMalformedRecord, Delimiter, delims)
	}

	fields := map[string]any{}
	for _, line := range meta {
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		fields[key] = inferValue(value)
	}

	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return nil, &MissingFieldError{Field: f}
		}
	}

	return &model.Toilet{
		ID:           model.ToiletID(toString(fields["id"])),
		Name:         toString(fields["name"]),
		Address:      toString(fields["address"]),
		Latitude:     toFloat(fields["latitude"]),
		Longitude:    toFloat(fields["longitude"]),
		Description:  toString(fields["description"]),
		IsFree:       toBool(fields["isFree"]),
		Rating:       toFloat(fields["rating"]),
		TotalRatings: toInt(fields["totalRatings"]),
		Likes:        toInt(fields["likes"]),
		Dislikes:     toInt(fields["dislikes"]),
		Images:       toStrings(fields["images"]),
		CreatedAt:    toString(fields["createdAt"]),
		UpdatedAt:    toString(fields["updatedAt"]),
	}, nil
}

// inferValue types a raw metadata value: quoted string, JSON array,
// boolean, number, raw string, in that priority order.
func inferValue(v string) any {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return unescape(v[1 : len(v)-1])
		}
	}
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(v), &arr); err != nil {
			return []string{}
		}
		return arr
	}
	if v == "true" {
		return true
	}
	if v == "false" {
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}

func toInt(v any) int {
	return int(toFloat(v))
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}

func toStrings(v any) []string {
	if s, ok := v.([]string); ok {
		return s
	}
	return []string{}
}

func writeLine(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func writeString(b *strings.Builder, key, value string) {
	writeLine(b, key, `"`+escape(value)+`"`)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatImages(images []string) string {
	if len(images) == 0 {
		return "[]"
	}
	out, err := json.Marshal(images)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// renderBody produces the free-form markdown section shown to people
// browsing the data repository directly.
func renderBody(t *model.Toilet) string {
	cost := "Paid"
	if t.IsFree {
		cost = "Free"
	}
	var b strings.Builder
	b.WriteString("\n# " + t.Name + "\n\n")
	b.WriteString("**Address:** " + t.Address + "\n")
	b.WriteString("**Coordinates:** " + formatFloat(t.Latitude) + ", " + formatFloat(t.Longitude) + "\n")
	b.WriteString("**Cost:** " + cost + "\n")
	if t.Description != "" {
		b.WriteString("**Description:** " + t.Description + "\n")
	}
	b.WriteString("\n## Location\n")
	b.WriteString("This toilet is located at coordinates " + formatFloat(t.Latitude) + ", " + formatFloat(t.Longitude) + ".\n")
	return b.String()
}
