package survey

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.True(t, resolveActive("Y", nil, now))
	assert.True(t, resolveActive("y", &future, now))
	assert.False(t, resolveActive("Y", &past, now))
	assert.False(t, resolveActive("N", nil, now))
	assert.False(t, resolveActive("", &future, now))
}

func TestParseRemoteTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	v := "2024-05-01 12:00:00"
	got := parseRemoteTime(&v, loc)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)))

	empty := ""
	assert.Nil(t, parseRemoteTime(&empty, loc))
	assert.Nil(t, parseRemoteTime(nil, loc))

	garbage := "next tuesday"
	assert.Nil(t, parseRemoteTime(&garbage, loc))
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"42","b":7,"c":null}`), &v))
	assert.Equal(t, flexInt(42), v.A)
	assert.Equal(t, flexInt(7), v.B)
	assert.Equal(t, flexInt(0), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"x1"}`), &v))
}

func TestIsNoData(t *testing.T) {
	assert.True(t, isNoData("No Data, could not get max id."))
	assert.True(t, isNoData("No surveys found"))
	assert.True(t, isNoData(" No survey participants found."))
	assert.False(t, isNoData("No permission"))
	assert.False(t, isNoData("Invalid session key"))
}

func TestParseAnswers(t *testing.T) {
	t.Run("two question columns", func(t *testing.T) {
		data := "id,token,submitdate,lastpage,startlanguage,seed,Q1,Q2\n1,t1,2024-01-01 00:00:00,1,en,9,a,b\n"

		answers, err := parseAnswers([]byte(data), ',')
		require.NoError(t, err)
		require.Len(t, answers, 1)
		assert.Len(t, answers[0].Answers, 2)
		assert.Equal(t, "a", answers[0].Answers["Q1"])
		assert.Equal(t, "b", answers[0].Answers["Q2"])
	})

	t.Run("semicolon delimiter with BOM and short row", func(t *testing.T) {
		data := "\xEF\xBB\xBFid;token;submitdate;lastpage;startlanguage;seed;Q1;Q2\n1;;;;;;x\n\n2;t2;;;;;y;z\n"

		answers, err := parseAnswers([]byte(data), ';')
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, "1", answers[0].ResponseID)
		assert.Equal(t, map[string]string{"Q1": "x", "Q2": ""}, answers[0].Answers)
		assert.Equal(t, "t2", answers[1].Token)
	})

	t.Run("header only", func(t *testing.T) {
		answers, err := parseAnswers([]byte("id,token,submitdate,lastpage,startlanguage,seed,Q1\n"), ',')
		require.NoError(t, err)
		assert.Empty(t, answers)
	})

	t.Run("empty export", func(t *testing.T) {
		answers, err := parseAnswers(nil, ',')
		require.NoError(t, err)
		assert.Empty(t, answers)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := parseAnswers([]byte("id,token\n1,t\n"), ',')
		require.Error(t, err)
	})
}
