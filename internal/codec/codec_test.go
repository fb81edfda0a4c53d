package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toiletmap/pkg/model"
)

func sampleToilet() *model.Toilet {
	return &model.Toilet{
		ID:           "7",
		Name:         "Main Station",
		Address:      "Wilsonova 300/8, 120 00 Praha",
		Latitude:     50.083,
		Longitude:    14.435,
		Description:  "Near platform 1",
		IsFree:       false,
		Rating:       4.0,
		TotalRatings: 4,
		Likes:        3,
		Dislikes:     1,
		Images:       []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
		CreatedAt:    "2024-03-01T10:00:00Z",
		UpdatedAt:    "2024-04-02T11:30:00Z",
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Toilet)
	}{
		{name: "full record"},
		{name: "empty description", mutate: func(t *model.Toilet) { t.Description = "" }},
		{name: "no images", mutate: func(t *model.Toilet) { t.Images = []string{} }},
		{name: "zero counters", mutate: func(t *model.Toilet) {
			t.Likes, t.Dislikes, t.TotalRatings, t.Rating = 0, 0, 0, 0
		}},
		{name: "quote in name", mutate: func(t *model.Toilet) { t.Name = `The "Golden" Loo` }},
		{name: "backslash in address", mutate: func(t *model.Toilet) { t.Address = `C:\somewhere odd` }},
		{name: "delimiter inside value", mutate: func(t *model.Toilet) { t.Description = "before --- after" }},
		{name: "fractional rating", mutate: func(t *model.Toilet) {
			t.Likes, t.Dislikes, t.TotalRatings, t.Rating = 2, 1, 3, 3.7
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleToilet()
			if tt.mutate != nil {
				tt.mutate(in)
			}
			out, err := Decode(Encode(in))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(in, out))
		})
	}
}

func TestEncodeRatingKeepsOneDecimal(t *testing.T) {
	in := sampleToilet()
	out := string(Encode(in))
	assert.Contains(t, out, "rating: 4.0\n")

	in.Likes, in.Dislikes, in.TotalRatings, in.Rating = 0, 0, 0, 0
	out = string(Encode(in))
	assert.Contains(t, out, "rating: 0.0\n")

	in.Likes, in.Dislikes, in.TotalRatings, in.Rating = 2, 1, 3, 3.7
	out = string(Encode(in))
	assert.Contains(t, out, "rating: 3.7\n")
}

func TestDecodeSingleDelimiterIsMalformed(t *testing.T) {
	_, err := Decode([]byte("---\nid: \"1\"\nname: \"x\"\n"))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecodeNoDelimiterIsMalformed(t *testing.T) {
	_, err := Decode([]byte("just some text"))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecodeMissingRequiredField(t *testing.T) {
	content := string(Encode(sampleToilet()))
	content = strings.Replace(content, "likes: 3\n", "", 1)
	_, err := Decode([]byte(content))
	assert.ErrorIs(t, err, ErrMissingField)
	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "likes", mfe.Field)
}

func TestDecodeDescriptionOptional(t *testing.T) {
	content := string(Encode(sampleToilet()))
	content = strings.Replace(content, "description: \"Near platform 1\"\n", "", 1)
	out, err := Decode([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "", out.Description)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	content := string(Encode(sampleToilet()))
	content = strings.Replace(content, "likes: 3\n", "likes: 3\nwheelchairAccess: true\n", 1)
	out, err := Decode([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Likes)
}

func TestDecodeValueInference(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{name: "double quoted string", in: `"hello"`, want: "hello"},
		{name: "single quoted string", in: `'hello'`, want: "hello"},
		{name: "quoted number stays string", in: `"42"`, want: "42"},
		{name: "json array", in: `["a","b"]`, want: []string{"a", "b"}},
		{name: "empty array", in: `[]`, want: []string{}},
		{name: "broken array falls back empty", in: `[not json`, want: "[not json"},
		{name: "invalid json array falls back empty", in: `[1,]`, want: []string{}},
		{name: "bare true", in: `true`, want: true},
		{name: "bare false", in: `false`, want: false},
		{name: "number", in: `50.083`, want: 50.083},
		{name: "raw string", in: `not typed`, want: "not typed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferValue(tt.in))
		})
	}
}

// Files written by earlier versions of the service carry unquoted or
// oddly typed values; every present field is still coerced to its
// declared type.
func TestDecodeCoercesFieldTypes(t *testing.T) {
	content := `---
id: 3
name: Unquoted Name
address: "Somewhere 1"
latitude: "50.1"
longitude: 14.4
description: ""
isFree: "true"
rating: 4.5
totalRatings: 2
likes: 1
dislikes: 1
images: []
createdAt: "2024-03-01T10:00:00Z"
updatedAt: "2024-03-01T10:00:00Z"
---
body text
`
	out, err := Decode([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, model.ToiletID("3"), out.ID)
	assert.Equal(t, "Unquoted Name", out.Name)
	assert.Equal(t, 50.1, out.Latitude)
	assert.Equal(t, 14.4, out.Longitude)
	assert.True(t, out.IsFree)
	assert.Equal(t, 2, out.TotalRatings)
	assert.Equal(t, []string{}, out.Images)
}

func TestEncodeBodyRendering(t *testing.T) {
	content := string(Encode(sampleToilet()))
	assert.Contains(t, content, "# Main Station\n")
	assert.Contains(t, content, "**Cost:** Paid\n")
	assert.Contains(t, content, "**Description:** Near platform 1\n")

	free := sampleToilet()
	free.IsFree = true
	free.Description = ""
	content = string(Encode(free))
	assert.Contains(t, content, "**Cost:** Free\n")
	assert.NotContains(t, content, "**Description:**")
}

func TestEncodeEmptyImagesIsLiteralEmptyArray(t *testing.T) {
	rec := sampleToilet()
	rec.Images = nil
	assert.Contains(t, string(Encode(rec)), "images: []\n")
}
