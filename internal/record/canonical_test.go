package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": []any{true, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,null]}`, string(data))
}

func TestMarshalCanonical_KeepsDecimalScores(t *testing.T) {
	term := TermData{Scores: map[string]any{"Toán": 8.5, "GDTC": "Đ"}}
	data, err := MarshalCanonical(term)
	require.NoError(t, err)
	assert.Equal(t, `{"scores":{"GDTC":"Đ","Toán":8.5}}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(data))
}

func TestDigest_NFCEquivalentStringsMatch(t *testing.T) {
	composed := Student{ID: "HS1", FullName: "L\u00ea"}
	decomposed := Student{ID: "HS1", FullName: "Le\u0302"}

	d1, err := Digest(composed)
	require.NoError(t, err)
	d2, err := Digest(decomposed)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestDigest_DiffersOnContent(t *testing.T) {
	d1, err := Digest([]Student{{ID: "HS1", FullName: "An"}})
	require.NoError(t, err)
	d2, err := Digest([]Student{{ID: "HS1", FullName: "Bình"}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestDigest_MapOrderIndependent(t *testing.T) {
	a := map[string]any{}
	b := map[string]any{}
	keys := []string{"z", "y", "x", "w", "v"}
	for i, k := range keys {
		a[k] = i
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b[keys[i]] = i
	}
	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
